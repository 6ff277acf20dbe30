//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	jetOutput               = "gen"
	jetBotOutput            = "bot/gen"
	jetAuthOutput           = "auth/gen"
	sqliteArenaFileLocation = "arena.sqlite"
	sqliteBotFileLocation   = "bot.sqlite"
	sqliteAuthFileLocation  = "auth.sqlite"
	serverBin               = "./bin/arena"
	serverPkg               = "./cmd/arena"
	defaultServerConfigPath = "configs/server.toml"
	defaultBotConfigPath    = "configs/bot.toml"
	e2ePkg                  = "./internal/web/..."
)

const (
	toolsDir     = "tools/"
	toolsModfile = toolsDir + "go.mod"
	toolsBinDir  = toolsDir + "bin/"
	lintTool     = toolsBinDir + "golangci-lint"
	jetTool      = toolsBinDir + "jet"
)

func goModDownload() error {
	return sh.Run("go", "mod", "download")
}

// Build builds the arena binary
func Build() error {
	mg.Deps(goModDownload)
	return sh.RunWith(map[string]string{
		"CGO_ENABLED": "1",
	}, "go", "build", "-o", serverBin, serverPkg)
}

// Run starts the web server with configs/server.toml
func Run() error {
	mg.Deps(Build)
	return sh.Run(serverBin, "serve",
		"--server-config", defaultServerConfigPath,
		"--bot-config", defaultBotConfigPath)
}

// Certgen writes cert.pem and key.pem into the working directory
func Certgen() error {
	mg.Deps(Build)
	return sh.Run(serverBin, "certgen")
}

// GenJet regenerates the jet models from the sqlite files a server run leaves behind
func GenJet() error {
	mg.Deps(buildJetTool)
	if err := sh.Run(jetTool, "-source", "sqlite", "-dsn", sqliteArenaFileLocation, "-path", jetOutput); err != nil {
		return err
	}
	if err := sh.Run(jetTool, "-source", "sqlite", "-dsn", sqliteAuthFileLocation, "-path", jetAuthOutput); err != nil {
		return err
	}
	return sh.Run(jetTool, "-source", "sqlite", "-dsn", sqliteBotFileLocation, "-path", jetBotOutput)
}

func buildJetTool() error {
	return sh.RunWith(map[string]string{
		"CGO_ENABLED": "1",
	}, "go", "build", "-modfile", toolsModfile, "-o", jetTool, "github.com/go-jet/jet/v2/cmd/jet")
}

// Test runs the unit tests
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// E2E drives a local Chrome against an in-process server
func E2E() error {
	return sh.RunV("go", "test", "-tags", "e2e", "-run", "TestBrowser", e2ePkg)
}

func Lint() error {
	mg.Deps(buildLintTool)
	return sh.Run(lintTool, "run", "./...")
}

func buildLintTool() error {
	return sh.Run(
		"go", "build",
		"-modfile", toolsModfile,
		"-o", lintTool,
		"github.com/golangci/golangci-lint/cmd/golangci-lint",
	)
}
