/*
Copyright © 2025 pdfchat
*/
package main

import (
	"github.com/joho/godotenv"
	"github.com/pdfchat/pdfchat-be/cmd"
	"github.com/sirupsen/logrus"
)

func main() {
	cmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, relying on environment")
	}
}
