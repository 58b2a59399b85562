// Command hashpass prints a bcrypt hash for an auth.admins password_hash entry.
// The password is read from the first argument, or from stdin when omitted.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Domenick1991/flightstore/internal/service/admin"
	"github.com/sirupsen/logrus"
)

func main() {
	password, err := readPassword(os.Args[1:], os.Stdin)
	if err != nil {
		logrus.Fatalf("read password: %v", err)
	}
	hash, err := admin.HashPassword(password)
	if err != nil {
		logrus.Fatalf("hash password: %v", err)
	}
	fmt.Println(hash)
}

func readPassword(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("empty password")
	}
	return password, nil
}
