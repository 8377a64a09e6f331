// Package translate resolves links into installed distributions.
//
// A [Translator] turns one [link.Link] into a [Result]. Two strategies are
// provided:
//
//   - [BinaryTranslator] fetches a prebuilt .egg straight into the install
//     cache.
//   - [SourceTranslator] fetches a source archive into a scratch directory,
//     builds it and distills the build into the install cache.
//
// A [Chain] tries strategies in order and stops at the first one that
// resolves the link. [Default] builds the recommended chain, binary before
// source, with both strategies sharing one cache directory:
//
//	chain, err := translate.Default(translate.Options{CacheDir: dir})
//	if err != nil {
//	    return err
//	}
//	res := chain.Translate(ctx, l)
//	switch res.Outcome() {
//	case translate.OutcomeResolved:
//	    fmt.Println(res.Distribution().Location)
//	case translate.OutcomeFatal:
//	    return res.Err()
//	default:
//	    fmt.Println("no resolution found for", l)
//	}
//
// # Outcomes
//
// Every strategy reports one of four outcomes. NotApplicable means the
// link is the wrong kind or targets another platform; no work was done.
// SoftFailure means the strategy tried and could not resolve the link (a
// binary download failed, a build declared failure); the chain moves on.
// Fatal means the environment is broken (the build tool is missing, a
// source download failed, a cached archive has bad metadata) and the chain
// stops.
//
// Scratch directories created by a strategy are removed before Translate
// returns, whatever the outcome. The install cache persists.
package translate
