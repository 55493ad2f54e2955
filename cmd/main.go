// cmd/main.go
package main

import (
	"ben-bank-api/app"
)

// @title           Ben Bank API
// @version         1.0
// @description     Banking REST API: accounts, deposits, withdrawals, transfers and e-mail OTP authentication.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
