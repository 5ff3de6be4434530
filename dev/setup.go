package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	devenv "pandassist/dev/env"
	"pandassist/internal/snapshot"
	configlibsql "pandassist/pkg/configutil/libsql"
)

const snapshotDbPath = "<dev_state>/panda.db"

const liveTestConfigTemplate = `{
  // the portal the live tests log in to
  base_url: "https://panda.ecs.kyoto-u.ac.jp",
  username: "",
  password: "",
  // a keyword that matches at least one of the account's site titles
  site_keyword: "",
}
`

const cliConfigTemplate = `{
  base_url: "https://panda.ecs.kyoto-u.ac.jp",
  username: "",
  password: "",
  timeout_seconds: 30,
  requests_per_second: 4,
  cloudflare_bypass: false,
  cache_minutes: 15,
  db: {
    file: "%s",
  },
}
`

func CreateSnapshotDB() error {
	path, err := devenv.ResolvePath(snapshotDbPath)
	if err != nil {
		return err
	}
	fmt.Println("creating snapshot database at", path)

	db, err := configlibsql.Struct{File: snapshotDbPath}.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return snapshot.Migrate(context.Background(), db)
}

// writeTemplate writes contents to path unless something is already there.
func writeTemplate(path, contents string) error {
	_, err := os.Stat(path)
	if err == nil {
		fmt.Println("config already exists at", path)
		return nil
	}
	fmt.Println("writing config template to", path)
	return os.WriteFile(path, []byte(contents), 0600)
}

func CreateConfigTemplates() error {
	livePath, err := devenv.GetStateFilePath("panda_config.json5")
	if err != nil {
		return err
	}
	err = writeTemplate(livePath, liveTestConfigTemplate)
	if err != nil {
		return err
	}

	cliPath, err := devenv.GetStateFilePath("config.json5")
	if err != nil {
		return err
	}
	return writeTemplate(cliPath, fmt.Sprintf(cliConfigTemplate, snapshotDbPath))
}

func PrintConfigLocations() {
	slog.Info("fill in dev/.state/panda_config.json5 to enable the live portal tests, they are skipped otherwise.")
	slog.Info("dev/.state/config.json5 can be passed to panda-cli with --config.")
}
