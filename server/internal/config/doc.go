// Package config loads the server-side configuration from the `server:` section
// of config.yaml (the `agent:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort       pushes, exposition, REST API and WebSocket (default 9091)
//   - Auth.Mode      "apikey" or "none"
//   - Auth.KeyEnv    environment variable holding the expected API key
//   - Auth.Header    HTTP header name (default "x-api-key")
//   - GroupTTL       how long a pushed group stays live (default 24h, 0 = forever)
//   - StreamInterval WebSocket broadcast period (default 5s)
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
