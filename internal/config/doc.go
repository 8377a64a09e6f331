// Package config loads distcache settings with viper.
//
// Values are layered, lowest precedence first: built-in defaults, an
// optional TOML file, DISTCACHE_* environment variables, and command-line
// flags bound with [Loader.BindFlag]. Nested keys map to environment
// variables by replacing dots with underscores, so index.url is read from
// DISTCACHE_INDEX_URL.
//
// A config file looks like:
//
//	cache_dir = "/var/cache/distcache"
//	conn_timeout = "30s"
//
//	[index]
//	url = "https://pypi.org/pypi"
//	ttl = "24h"
//
//	[build]
//	command = ["python3", "setup.py", "bdist_egg", "--dist-dir", "{out}"]
//	strict_exempt = ["distribute"]
package config
