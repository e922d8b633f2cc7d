// Package ctl implements alertctl, the administrative command-line tool of
// the alert server.
//
// It works directly against the user store, using the same configuration,
// repositories and services as the server:
//
//	alertctl migrate up|down|status|version
//	alertctl user create <username>
//	alertctl user get <id>
//	alertctl user find <username>
//	alertctl user check <username>
//	alertctl user passwd <id>
//	alertctl user archive <id>
//	alertctl user list [active|archived|all]
//	alertctl user verify <username>
//
// Configuration flags (-d, -r, -c, ...) follow the command words.
// Passwords are read from the terminal without echo, or one per line when
// stdin is not a terminal.
package ctl
