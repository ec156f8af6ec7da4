// Package api provides the read-only REST API for poolscope
// @title Poolscope API
// @version 1.0
// @description REST API serving the shielded pool value time series tracked by poolscope
// @contact.name API Support
// @contact.url https://github.com/horizen-tools/poolscope
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
