// Command cli is a small interactive client for the authentication server.
// It drives the REST API: register, login (storing the issued JWT for the
// session), profile reads, and account deletion.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ilepins/userauth/internal/shared"
)

func main() {
	addr := flag.String("a", "http://localhost:8080", "server base URL")
	flag.Parse()

	client := NewClient(*addr)
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("commands: register, login, whoami, passwd, delete, quit")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		switch strings.TrimSpace(line) {
		case "register":
			runRegister(client, reader)
		case "login":
			runLogin(client, reader)
		case "whoami":
			runWhoami(client)
		case "passwd":
			runChangePassword(client, reader)
		case "delete":
			runDelete(client)
		case "quit", "exit":
			return
		case "":
		default:
			fmt.Println("unknown command")
		}
	}
}

func runRegister(c *Client, reader *bufio.Reader) {
	username, err := getSimpleText(reader, "Username")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	email, err := getSimpleText(reader, "Email (optional)")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	password, err := getPassword()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer shared.WipeByteArray(password)

	user, err := c.Register(username, string(password), email)
	if err != nil {
		fmt.Println("registration failed:", err)
		return
	}
	fmt.Printf("registered %s (id %s)\n", user.Username, user.ID)
}

func runLogin(c *Client, reader *bufio.Reader) {
	username, err := getSimpleText(reader, "Username")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	password, err := getPassword()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer shared.WipeByteArray(password)

	user, err := c.Login(username, string(password))
	if err != nil {
		fmt.Println("login failed:", err)
		return
	}
	fmt.Printf("logged in as %s\n", user.Username)
}

func runWhoami(c *Client) {
	user, err := c.Profile()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("%s (created %s)\n", user.Username, user.CreatedAt.Format("2006-01-02 15:04:05"))
}

func runChangePassword(c *Client, reader *bufio.Reader) {
	fmt.Println("Current password:")
	current, err := getPassword()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer shared.WipeByteArray(current)

	fmt.Println("New password:")
	replacement, err := getPassword()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer shared.WipeByteArray(replacement)

	if err := c.ChangePassword(string(current), string(replacement)); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("password changed")
}

func runDelete(c *Client) {
	if err := c.DeleteAccount(); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("account deleted")
}
