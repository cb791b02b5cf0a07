package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           vlmd API
// @version         1.0
// @description     HTTP API for local vision-language model inference.
//
// @contact.name   vlmd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
