// Package config loads the hotelbooker run configuration.
//
// Configuration comes from a single YAML file, hotelbooker.yaml in the
// working directory unless --config names another one. Values are layered
// in this order, later layers winning:
//
//  1. built-in defaults (see GetDefaultConfig)
//  2. the YAML file, when present
//  3. HOTELBOOKER_* environment variables
//
// # File Format
//
//	env: qa
//	browser:
//	  name: chromium          # chromium, firefox or webkit
//	  driver: playwright      # playwright or chromedp
//	  headless: true
//	  windowWidth: 1920
//	  windowHeight: 1080
//	tags: "@smoke"
//	concurrency: 1
//	reportsDir: reports
//	waits:
//	  default: 30s
//	  short: 10s
//	  long: 60s
//	environments:
//	  qa:
//	    url: https://qa.hotelbooker.example/login.aspx
//	    username: qa.agent
//
// # Environment Overrides
//
//   - HOTELBOOKER_ENV selects the environment entry
//   - HOTELBOOKER_URL, HOTELBOOKER_USERNAME and HOTELBOOKER_PASSWORD
//     override fields of the selected entry, which keeps passwords out of
//     the file
//   - HOTELBOOKER_TAGS, HOTELBOOKER_BROWSER and HOTELBOOKER_HEADLESS
//     override the matching top-level settings
//
// Every problem found while loading is reported as a *ConfigurationError;
// several problems are returned together as ConfigurationErrors, which
// unwraps to the individual errors so errors.As finds them.
package config
