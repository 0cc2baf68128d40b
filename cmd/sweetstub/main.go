package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/georgemunganga/sweetshop/internal/modules/stub"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using environment")
	}

	key := os.Getenv("JWT_SECRET_KEY")
	if key == "" {
		key = "dev-secret-key"
		logrus.Warn("JWT_SECRET_KEY not set, using the development key")
	}

	router := stub.NewRouter(stub.Options{
		SigningKey: []byte(key),
		AccessLog:  true,
	})

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "5000"
	}
	fmt.Printf("Sweet shop stub API listening on :%s/api\n", port)
	logrus.Fatal(http.ListenAndServe(":"+port, router))
}
