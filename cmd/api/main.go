package main

import (
	_ "trust_donations/docs"
	"trust_donations/internal/adapter/http/routes"

	_ "github.com/joho/godotenv/autoload"
)

// @title           Trust Donations API
// @version         1.0
// @description     Donation checkout, payment verification and reconciliation backed by DynamoDB.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080

// @BasePath  /v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the cron secret.

func main() {
	routes.Run()
}
