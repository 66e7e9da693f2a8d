// Command admin is an operator tool for the identity store: it can
// register accounts, inspect them (including soft-deleted rows), retire
// them, and re-send confirmation codes, using the same engine the public
// surface consumes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/dmitrijs2005/openaudit/internal/flagx"
	"github.com/dmitrijs2005/openaudit/internal/server"
	"github.com/dmitrijs2005/openaudit/internal/server/config"
	"golang.org/x/term"
)

type adminFlags struct {
	action   string
	username string
	email    string
	id       string
	reason   string
	banned   bool
}

func parseAdminFlags() *adminFlags {
	args := flagx.FilterArgs(os.Args[1:], []string{"-action", "-username", "-email", "-id", "-reason", "-banned"})

	f := &adminFlags{}
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	fs.StringVar(&f.action, "action", "", "register | lookup | delete | resend")
	fs.StringVar(&f.username, "username", "", "account username")
	fs.StringVar(&f.email, "email", "", "account email")
	fs.StringVar(&f.id, "id", "", "account id")
	fs.StringVar(&f.reason, "reason", "", "deletion reason")
	fs.BoolVar(&f.banned, "banned", false, "mark the account banned on deletion")
	_ = fs.Parse(args)
	return f
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.Close()

	if err := run(ctx, app, parseAdminFlags()); err != nil {
		app.Logger.Error(ctx, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, app *server.App, f *adminFlags) error {
	switch f.action {

	case "register":
		if f.username == "" || f.email == "" {
			return fmt.Errorf("register requires -username and -email")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		account, err := app.Accounts.Register(ctx, f.username, f.email, password)
		if err != nil {
			return err
		}
		fmt.Printf("registered account %s\n", account.ID)
		return nil

	case "lookup":
		if f.username == "" {
			return fmt.Errorf("lookup requires -username")
		}
		account, err := app.Accounts.GetByUsername(ctx, f.username, true)
		if err != nil {
			return err
		}
		fmt.Printf("id:               %s\n", account.ID)
		fmt.Printf("username:         %s\n", account.Username)
		fmt.Printf("email confirmed:  %v\n", account.EmailConfirmed)
		fmt.Printf("banned:           %v\n", account.Banned)
		fmt.Printf("do not email:     %v\n", account.DoNotEmail)
		fmt.Printf("created:          %s\n", account.CreateDate)
		if account.Deleted() {
			fmt.Printf("deleted:          %s (%s)\n", account.DeleteDate, account.DeleteReason)
		}
		return nil

	case "delete":
		if f.id == "" || f.reason == "" {
			return fmt.Errorf("delete requires -id and -reason")
		}
		if err := app.Accounts.SoftDelete(ctx, f.id, f.reason, f.banned); err != nil {
			return err
		}
		fmt.Printf("deleted account %s\n", f.id)
		return nil

	case "resend":
		if f.email == "" {
			return fmt.Errorf("resend requires -email")
		}
		return app.Accounts.ResendConfirmation(ctx, f.email)

	default:
		return fmt.Errorf("unknown action %q (want register, lookup, delete, or resend)", f.action)
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
