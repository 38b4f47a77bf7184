package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Login exchanges a username and password for a bearer token and stores it.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.ensureSession()
	if err != nil {
		return err
	}

	username := cmd.StringArg("username")
	password := cmd.String("password")
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	r.logger.Info("signing in", "username", username)
	if err := sess.Login(ctx, username, password); err != nil {
		return err
	}

	profile := sess.Profile()
	return r.writePlain("✓ Signed in as %s\n", profile.Username)
}

// Signup registers a new account; on success the session is signed in.
func (r *Runner) Signup(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.ensureSession()
	if err != nil {
		return err
	}

	username := cmd.StringArg("username")
	password := cmd.String("password")
	fullName := cmd.String("full-name")
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	r.logger.Info("creating account", "username", username)
	if err := sess.Signup(ctx, username, password, fullName); err != nil {
		return err
	}

	return r.writePlain("✓ Account created, signed in as %s\n", username)
}

// Logout drops the stored credential. With --everywhere it first revokes
// every session on the server; the local credential survives a failed revoke.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	if cmd.Bool("everywhere") {
		if err := sess.LogoutEverywhere(ctx); err != nil {
			return fmt.Errorf("revoke failed, still signed in: %w", err)
		}
		return r.writePlain("✓ Signed out everywhere\n")
	}

	sess.Logout()
	return r.writePlain("✓ Signed out\n")
}

// Whoami prints the stored profile, refreshed from the server when reachable.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	if err := sess.RefreshProfile(ctx); err != nil {
		r.logger.Warn("could not refresh profile, showing stored values", "error", err)
	}

	profile := sess.Profile()
	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlain("Username:  %s\n", profile.Username)
	if profile.FullName != "" {
		r.writePlain("Full name: %s\n", profile.FullName)
	}
	if exp := sess.ExpiresAt(); !exp.IsZero() {
		r.writePlain("Token expires: %s\n", exp.Format("2006-01-02 15:04:05"))
	}
	return nil
}
