// ABOUTME: audit subcommand of partdb-admin
// ABOUTME: Lists recent audit entries with optional actor, action and target filters

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
)

func cmdAudit(ctx context.Context, a *app, args []string) error {
	p, err := parseArgs(args, map[string]string{
		"--actor": "actor", "--action": "action", "--target": "target",
		"--type": "type", "--limit": "limit", "-n": "limit",
	}, nil)
	if err != nil {
		return err
	}
	if len(p.positional) > 0 {
		return fmt.Errorf("usage: audit [--actor a] [--action x] [--type t] [--target id] [--limit n]")
	}
	if err := a.engine.TryDo(a.subject, perm.CategoryDatabase, perm.OpSeeStatus); err != nil {
		return err
	}

	var f store.AuditFilter
	if v, ok := p.value("actor"); ok {
		f.ActorID = &v
	}
	if v, ok := p.value("action"); ok {
		action := store.AuditAction(v)
		if !slices.Contains(store.ValidAuditActions, action) {
			return fmt.Errorf("unknown audit action %q", v)
		}
		f.Action = &action
	}
	if v, ok := p.value("type"); ok {
		f.TargetType = &v
	}
	if v, ok := p.value("target"); ok {
		f.TargetID = &v
	}
	if v, ok := p.value("limit"); ok {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid limit %q", v)
		}
	}

	entries, err := a.store.ListAuditLog(ctx, f)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Audit Log")
	cyan.Println("  ---------")

	if len(entries) == 0 {
		fmt.Println("  (no entries)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TIME\tACTOR\tACTION\tTARGET\tDETAIL")
	fmt.Fprintln(w, "  ----\t-----\t------\t------\t------")
	for _, e := range entries {
		detail := ""
		if len(e.Detail) > 0 {
			b, err := json.Marshal(e.Detail)
			if err != nil {
				return err
			}
			detail = truncate(string(b), 60)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s %s\t%s\n",
			e.Timestamp.Local().Format("Jan 02 15:04:05"),
			truncate(e.ActorID, 16), e.Action, e.TargetType, e.TargetID, detail)
	}
	w.Flush()
	fmt.Println()
	return nil
}
