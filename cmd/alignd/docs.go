package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           alignd API
// @version         1.0
// @description     HTTP API for aligning 3D building models onto footprint polygons.
//
// @contact.name   alignd maintainers
// @contact.url    https://github.com/your-org/alignd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
