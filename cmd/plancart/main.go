// Package main is the entry point for plancart.
//
//	@title			plancart API
//	@version		1.0
//	@description	Plan selection cart and checkout front for a payments backend.
//
//	@contact.name	plancart maintainers
//	@contact.url	https://github.com/artpar/plancart/issues
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
package main

func main() {
	Execute()
}
