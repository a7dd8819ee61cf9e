// Package cli provides the interactive projectgate command-line client.
//
// It wires configuration, the HTTP API client and a read-eval-print loop.
// Passwords are read from the terminal without echo.
//
// Commands:
//   - signup, login, logout, whoami
//   - projects (list), create, update <id>, delete <id>
//   - role <username> <role>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
