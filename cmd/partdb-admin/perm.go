// ABOUTME: perm and token subcommands of partdb-admin
// ABOUTME: Shows, creates, edits and deletes subject permissions and issues subject tokens

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/partdb/partdb-core/internal/auth"
	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
)

// cmdPerm handles perm subcommands
func cmdPerm(ctx context.Context, a *app, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: perm <show|init|set|rm> <user|group> <id> ...")
	}
	subcmd := args[0]
	kind, err := parseSubjectType(args[1])
	if err != nil {
		return err
	}
	id := args[2]
	args = args[3:]

	switch subcmd {
	case "show", "ls":
		return cmdPermShow(ctx, a, kind, id)
	case "init", "create":
		if err := a.users.CreateSubject(ctx, a.subject, kind, id); err != nil {
			return err
		}
		color.Green("Created %s %s", kind, id)
		return nil
	case "set":
		return cmdPermSet(ctx, a, kind, id, args)
	case "rm", "delete":
		if err := a.users.DeleteSubject(ctx, a.subject, kind, id); err != nil {
			return err
		}
		color.Green("Deleted %s %s", kind, id)
		return nil
	default:
		return fmt.Errorf("unknown perm subcommand: %s (use show, init, set, rm)", subcmd)
	}
}

func parseSubjectType(s string) (store.SubjectType, error) {
	t := store.SubjectType(strings.ToLower(s))
	if !t.Valid() {
		return "", fmt.Errorf("subject type must be user or group, got %q", s)
	}
	return t, nil
}

func cmdPermShow(ctx context.Context, a *app, kind store.SubjectType, id string) error {
	if err := a.engine.TryDo(a.subject, perm.CategoryUsers, perm.OpRead); err != nil {
		return err
	}
	s, err := a.users.Load(ctx, kind, id)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  Permissions of %s %s\n", kind, id)
	cyan.Println("  ---------------" + strings.Repeat("-", len(kind)+1+len(id)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  CATEGORY\tOPERATION\tVALUE")
	fmt.Fprintln(w, "  --------\t---------\t-----")
	for _, category := range a.engine.Registry().Names() {
		fields, err := a.engine.Describe(s.Bitmask(category), category)
		if err != nil {
			return err
		}
		for _, f := range fields {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", category, f.Operation.Name, colorValue(f.Value))
		}
	}
	w.Flush()
	fmt.Println()
	return nil
}

func colorValue(v perm.Value) string {
	switch v {
	case perm.Allow:
		return color.GreenString(v.String())
	case perm.Deny:
		return color.RedString(v.String())
	default:
		return color.HiBlackString(v.String())
	}
}

func cmdPermSet(ctx context.Context, a *app, kind store.SubjectType, id string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: perm set <user|group> <id> <category.operation> <allow|deny|inherit>")
	}
	category, op, ok := strings.Cut(args[0], ".")
	if !ok {
		return fmt.Errorf("permission %q must be category.operation", args[0])
	}
	if _, known := a.engine.Registry().Category(category); !known {
		return fmt.Errorf("unknown permission category %q", category)
	}
	v, err := perm.ParseValue(args[1])
	if err != nil {
		return err
	}

	mask, err := a.users.SetPermission(ctx, a.subject, kind, id, category, op, v)
	if err != nil {
		return err
	}

	fields, err := a.engine.Describe(mask, category)
	if err != nil {
		return err
	}
	color.Green("Set %s.%s = %s for %s %s", category, op, v, kind, id)
	for _, f := range fields {
		fmt.Printf("  %-22s%s\n", f.Operation.Name, colorValue(f.Value))
	}
	return nil
}

// cmdToken handles token subcommands
func cmdToken(a *app, args []string) error {
	if len(args) < 1 || args[0] != "create" {
		return fmt.Errorf("usage: token create <user> [--group <group>]...")
	}
	p, err := parseArgs(args[1:], map[string]string{"--group": "group", "-g": "group"}, nil)
	if err != nil {
		return err
	}
	if len(p.positional) != 1 {
		return fmt.Errorf("usage: token create <user> [--group <group>]...")
	}
	if a.cfg.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is not configured")
	}
	if err := a.engine.TryDo(a.subject, perm.CategoryUsers, perm.OpEditPermissions); err != nil {
		return err
	}

	id := auth.Identity{UserID: p.positional[0], Groups: p.values["group"]}
	token, err := auth.NewJWTVerifier([]byte(a.cfg.Auth.TokenSecret)).Generate(id, a.cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	yellow := color.New(color.FgYellow)
	yellow.Fprintf(os.Stderr, "Token for %s (expires in %s):\n", id.UserID, a.cfg.Auth.TokenTTL)
	fmt.Println(token)
	return nil
}
