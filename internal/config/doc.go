/*
Package config loads the talecache configuration.

Values come from compiled-in defaults, then a YAML file, then TALECACHE_*
environment variables:

	global:
	  log_level: INFO        # TRACE, DEBUG, INFO, WARN, ERROR, FATAL
	  log_format: text       # text or json
	  log_file: ""           # empty logs to stderr
	  default_pool: app
	metrics:
	  enabled: true
	  namespace: talecache
	pools:
	  - name: sessions
	    type: memory
	    life_time: 30m
	  - name: app
	    type: file
	    path: /var/cache/app
	    format: json         # json, serialize or yaml
	    life_time: 24h
	  - name: main
	    type: routing
	    routes:
	      - prefix: session.
	        pool: sessions
	      - prefix: "*"
	        pool: app

Environment overrides:

	TALECACHE_LOG_LEVEL, TALECACHE_LOG_FORMAT, TALECACHE_LOG_FILE
	TALECACHE_DEFAULT_POOL
	TALECACHE_METRICS_ENABLED
	TALECACHE_CACHE_PATH     path of the default pool, if it is a file pool

Routing pools may only refer to pools declared above them, so pool
declarations can be built in order.
*/
package config
