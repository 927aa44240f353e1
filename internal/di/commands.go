package di

import (
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-wiki/internal/commands"
)

func commandsTimeout[T command.Message](timeout time.Duration) commands.HandlerOption[T] {
	if timeout <= 0 {
		timeout = commands.DefaultCommandTimeout
	}
	return commands.WithTimeout[T](timeout)
}
