package db

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
)

// RunMigrateCommand handles the 'migrate' subcommand dispatching.
func RunMigrateCommand(args []string, dbPath string) error {
	if len(args) < 1 || args[0] == "help" {
		PrintMigrateHelp(os.Stdout)
		if len(args) < 1 {
			return fmt.Errorf("missing migrate action")
		}
		return nil
	}

	// Open without migrating; the command itself manages the schema.
	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	return database.runMigrate(MigrationsFS(), args, os.Stdout, os.Stdin)
}

func (db *DB) runMigrate(migrations fs.FS, args []string, out io.Writer, in io.Reader) error {
	action := args[0]
	versionArg := func() (int, error) {
		if len(args) < 2 {
			return 0, fmt.Errorf("usage: chartlab migrate %s <version_number>", action)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid version number: %s", args[1])
		}
		return v, nil
	}

	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := db.MigrateUp(migrations); err != nil {
			return err
		}
		log.Println("✓ All migrations applied successfully")
		return printStatus(db, migrations, out)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := db.MigrateDown(migrations); err != nil {
			return err
		}
		log.Println("✓ Migration rolled back successfully")
		return printStatus(db, migrations, out)

	case "status":
		return printStatus(db, migrations, out)

	case "version":
		v, err := versionArg()
		if err != nil {
			return err
		}
		log.Printf("Migrating to version %d...", v)
		if err := db.MigrateTo(migrations, uint(v)); err != nil {
			return err
		}
		log.Printf("✓ Migrated to version %d successfully", v)
		return nil

	case "force":
		v, err := versionArg()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "⚠️  WARNING: Forcing migration version to %d\n", v)
		fmt.Fprintln(out, "This should only be used to recover from a dirty migration state.")
		fmt.Fprint(out, "Continue? [y/N]: ")
		response, _ := bufio.NewReader(in).ReadString('\n')
		if r := strings.TrimSpace(response); r != "y" && r != "Y" {
			log.Println("Aborted")
			return nil
		}
		if err := db.MigrateForce(migrations, v); err != nil {
			return err
		}
		log.Printf("✓ Migration version forced to %d", v)
		return nil

	default:
		fmt.Fprintf(out, "Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action %q", action)
	}
}

func printStatus(database *DB, migrations fs.FS, out io.Writer) error {
	s, err := database.Status(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== Migration Status ===")
	fmt.Fprintf(out, "Current version: %d\n", s.Current)
	fmt.Fprintf(out, "Latest available: %d\n", s.Latest)
	fmt.Fprintf(out, "Dirty: %v\n", s.Dirty)

	switch {
	case s.Dirty:
		fmt.Fprintln(out, "\n⚠️  WARNING: Database is in a dirty state!")
		fmt.Fprintln(out, "A migration failed mid-execution. Inspect the database, then run:")
		fmt.Fprintln(out, "  chartlab migrate force <version>")
	case s.Pending() > 0:
		fmt.Fprintf(out, "⚠️  Database is %d version(s) behind. Run 'chartlab migrate up' to update.\n", s.Pending())
	default:
		fmt.Fprintln(out, "✓ Database is up to date!")
	}
	return nil
}

// PrintMigrateHelp displays the help message for the migrate command.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprintln(out, "Database Migration Commands")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: chartlab migrate <command> [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  up              Apply all pending migrations")
	fmt.Fprintln(out, "  down            Rollback one migration")
	fmt.Fprintln(out, "  status          Show current migration status and version")
	fmt.Fprintln(out, "  version <N>     Migrate to specific version N")
	fmt.Fprintln(out, "  force <N>       Force migration version to N (recovery only)")
	fmt.Fprintln(out, "  help            Show this help message")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  chartlab migrate up")
	fmt.Fprintln(out, "  chartlab migrate status")
	fmt.Fprintln(out, "  chartlab migrate version 2")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, "  --db-path <path>    Path to database file (default: chartlab.db)")
}
