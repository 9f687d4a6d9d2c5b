package cli

import (
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/libkeeper/internal/common"
)

func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already logged in.")
		return nil
	}

	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	sess, err := a.session.Login(ctx, username, string(password))
	common.WipeByteArray(password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			printlnFn(common.ErrInvalidCredentials.Error())
		case errors.Is(err, common.ErrUnavailable):
			printlnFn(err.Error())
		default:
			printlnFn("Login failed:", err.Error())
		}
		return err
	}

	printlnFn("Welcome,", sess.Name+"!")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not logged in.")
		return nil
	}

	if err := a.session.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}

	a.catalog.Clear()
	a.lastBooks = nil
	a.lastBorrowed = nil

	printlnFn("Logged out.")
	return nil
}
