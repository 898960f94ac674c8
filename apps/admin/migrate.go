package main

import (
	"github.com/pressly/goose/v3"

	"github.com/tkabeya/darasa/appfs"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	command := "up"
	var arguments []string
	if len(args) > 0 {
		command = args[0]
		arguments = args[1:]
	}
	goose.SetBaseFS(appfs.FS)
	return gooseRunFunc(command, cli.db.DB, "migrations", arguments...)
}
