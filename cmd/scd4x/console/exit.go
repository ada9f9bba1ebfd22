package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Fail is Exit with code 1 and the error highlighted.
func Fail(msg string, err error) cli.ExitCoder {
	return Exit(1, "%s: %s", msg, Red(err))
}
