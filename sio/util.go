package sio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
)

// JS renders its argument as JSON or as '%#v'.
func JS(x interface{}) string {
	if x == nil {
		return "null"
	}
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}

// Short truncates the string to n bytes (plus "...").
func Short(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var shell = regexp.MustCompile(`<<(.*?)>>`)

// ShellExpand replaces each '<<command>>' with the output of that
// shell command.  Use at your own risk, of course!
func ShellExpand(line string) (string, error) {
	literals := shell.Split(line, -1)
	acc := literals[0]
	for i, s := range shell.FindAllStringSubmatch(line, -1) {
		cmd := exec.Command("bash", "-c", s[1])
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("shell error %s on %s", err, s[1])
		}
		acc += out.String() + literals[i+1]
	}
	return acc, nil
}
