package translate

// Default builds the recommended chain: a [BinaryTranslator] followed by a
// [SourceTranslator], sharing one install cache and configuration. Binary
// resolution is cheap and tried first; building from source is the
// fallback.
func Default(opts Options) (*Chain, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	shared := newSharedCache(opts.CacheDir)

	c, err := NewChain(Present(newBinary(opts, shared)), Present(newSource(opts, shared)))
	if err != nil {
		return nil, err
	}
	return c.WithLogger(opts.Logger), nil
}
