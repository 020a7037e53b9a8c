package cli

import (
	"fmt"
	"io"
)

func cliWriteLine(w io.Writer, line string) error {
	_, err := fmt.Fprintln(w, line)
	return err
}

func cliWriteField(w io.Writer, name, value string) error {
	_, err := fmt.Fprintf(w, "%-9s %s\n", name+":", value)
	return err
}
