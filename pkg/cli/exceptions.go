package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/mondoohq/console-core/pkg/console"
	"github.com/mondoohq/console-core/pkg/scope"
)

func newExceptionsCommand() *Command {
	cmd := &Command{
		Name:        "exceptions",
		Description: "List, create, or delete finding exceptions",
		Flags:       flag.NewFlagSet("exceptions", flag.ExitOnError),
		Run:         runExceptions,
	}

	cmd.Flags.String("space", "", "Space ID")
	cmd.Flags.Bool("create", false, "Create an exception")
	cmd.Flags.String("delete", "", "Delete the exception with this ID")
	cmd.Flags.String("finding", "", "Comma-separated finding MRNs to except")
	cmd.Flags.String("justification", "", "Why the findings are excepted")
	cmd.Flags.String("expires", "", "Expiry timestamp (RFC 3339, optional)")
	cmd.Flags.Int("limit", 25, "Page size when listing")
	cmd.Flags.Bool("all", false, "Fetch all pages when listing")

	return cmd
}

func runExceptions(args []string) error {
	cmd := newExceptionsCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	spaceID := cmd.Flags.Lookup("space").Value.String()
	create := cmd.Flags.Lookup("create").Value.String() == "true"
	deleteID := cmd.Flags.Lookup("delete").Value.String()
	finding := cmd.Flags.Lookup("finding").Value.String()
	justification := cmd.Flags.Lookup("justification").Value.String()
	expires := cmd.Flags.Lookup("expires").Value.String()
	limit, _ := strconv.Atoi(cmd.Flags.Lookup("limit").Value.String())
	all := cmd.Flags.Lookup("all").Value.String() == "true"

	if spaceID == "" {
		return fmt.Errorf("space is required")
	}
	if create && deleteID != "" {
		return fmt.Errorf("only one of -create or -delete may be given")
	}
	if create && finding == "" {
		return fmt.Errorf("finding is required with -create")
	}
	if create && justification == "" {
		return fmt.Errorf("justification is required with -create")
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close(ctx)

	sp, err := app.resolveSpace(ctx, spaceID)
	if err != nil {
		return err
	}

	switch {
	case deleteID != "":
		if err := app.requirePermission(scope.ActionSpaceExceptionsEdit); err != nil {
			return err
		}
		if err := app.console.DeleteException(ctx, deleteID); err != nil {
			return fmt.Errorf("failed to delete exception: %w", err)
		}
		fmt.Printf("Deleted exception %s\n", deleteID)
		return nil

	case create:
		if err := app.requirePermission(scope.ActionSpaceExceptionsEdit); err != nil {
			return err
		}
		input := console.CreateExceptionInput{
			ScopeMRN:      sp.MRN,
			FindingMRNs:   strings.Split(finding, ","),
			Justification: justification,
			ExpiresAt:     expires,
		}
		exc, err := app.console.CreateException(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to create exception: %w", err)
		}
		fmt.Printf("Created exception %s\n", exc.ID)
		return nil

	default:
		if err := app.requirePermission(scope.ActionSpaceExceptionsView); err != nil {
			return err
		}
		return listExceptions(ctx, app, sp.MRN, limit, all)
	}
}

func listExceptions(ctx context.Context, app *app, scopeMRN string, limit int, all bool) error {
	fmt.Printf("%-12s %-24s %-24s  %s\n", "ID", "CREATED", "EXPIRES", "JUSTIFICATION")
	print := func(page *console.Page[console.Exception]) error {
		for _, exc := range page.Nodes {
			fmt.Printf("%-12s %-24s %-24s  %s\n",
				exc.ID, exc.CreatedAt, exc.ExpiresAt, exc.Justification)
		}
		return nil
	}

	fetch := func(ctx context.Context, opts console.ListOptions) (*console.Page[console.Exception], error) {
		return app.console.Exceptions(ctx, scopeMRN, opts)
	}

	opts := console.ListOptions{First: limit}
	if all {
		return console.Pages(ctx, opts, fetch, print)
	}

	page, err := fetch(ctx, opts)
	if err != nil {
		return err
	}
	if err := print(page); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d exceptions\n", len(page.Nodes), page.TotalCount)
	return nil
}
