package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username and password and creates the account.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is wiped before returning. Registering an existing name replaces its
// password and ends every session of that name.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.client.Register(ctx, userName, password); err != nil {
		log.Printf("Registration unsuccessfull: %s", err.Error())
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts for credentials and opens a session. The refresh token is
// kept by the client; the REPL only remembers the user name.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.client.Login(ctx, userName, password); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		log.Printf("Login unsuccessfull: %s", err.Error())
		return err
	}

	log.Printf("Login successfull")
	a.userName = userName
	a.setMode(ModeOnline)
	return nil
}

// WhoAmI prints the name the server associates with the current session.
func (a *App) WhoAmI(ctx context.Context) error {
	name, err := a.client.WhoAmI(ctx)
	if err != nil {
		a.handleSessionError(err)
		return err
	}
	fmt.Println(name)
	return nil
}

// Refresh rotates the refresh token and obtains a new access token.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.client.Refresh(ctx); err != nil {
		a.handleSessionError(err)
		return err
	}
	fmt.Println("Session refreshed")
	return nil
}

// Logout forgets both tokens locally. The server keeps the refresh record
// until the next login or registration of the same name.
func (a *App) Logout(ctx context.Context) error {
	a.client.Logout()
	a.userName = ""
	return nil
}

func (a *App) handleSessionError(err error) {
	switch {
	case errors.Is(err, client.ErrSessionExpired),
		errors.Is(err, client.ErrInvalidRefreshToken),
		errors.Is(err, client.ErrUnauthorized):
		log.Printf("Session ended: %s", err.Error())
		a.client.Logout()
		a.userName = ""
	case errors.Is(err, client.ErrUnavailable):
		log.Printf("Server unavailable")
		a.setMode(ModeOffline)
	default:
		log.Printf("Request failed: %s", err.Error())
	}
}
