package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// readLine prompts on stderr and reads one line from the app's input. A
// value passed on the command line wins.
func (a *App) readLine(prompt, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	if a.input == nil {
		a.input = bufio.NewReader(a.In)
	}
	fmt.Fprint(a.Err, prompt)
	line, err := a.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no input for %q", strings.TrimSuffix(strings.TrimSpace(prompt), ":"))
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
