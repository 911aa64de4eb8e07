// Command portal is a small terminal front-end for the test-drive
// booking API.  It keeps the session in $HOME/.testdrive/session.json so
// a login survives between invocations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/autodrive/test-drive-portal/internal/portal"
)

func main() {
	baseURL := flag.String("api", "http://localhost:8080/v1", "portal API base URL")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fatal(err)
	}
	api := portal.NewClient(*baseURL)
	gate := portal.NewGate(api, portal.NewFileStore(filepath.Join(home, ".testdrive", "session.json")))
	catalog := portal.NewCatalog(api)
	flow := portal.NewFlow(gate, api)

	ctx := context.Background()

	switch args[0] {
	case "list":
		search := ""
		if len(args) > 1 {
			search = args[1]
		}
		cars, err := catalog.List(ctx, search)
		if err != nil {
			fatal(err)
		}
		for _, c := range cars {
			fmt.Printf("%-28s %-12s %-16s Rp %d\n", c.Slug, c.Brand, c.Showroom, c.Price)
		}
	case "show":
		if len(args) < 2 {
			fatal(errors.New("usage: portal show <slug>"))
		}
		car, err := catalog.BySlug(ctx, args[1])
		if err != nil {
			fatal(err)
		}
		printCar(car)
	case "login":
		if len(args) < 3 {
			fatal(errors.New("usage: portal login <email> <password>"))
		}
		id, err := gate.Login(ctx, args[1], args[2])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("logged in as %s (%s)\n", id.Name, id.Role)
	case "register":
		if len(args) < 5 {
			fatal(errors.New("usage: portal register <name> <email> <phone> <password>"))
		}
		id, err := gate.Register(ctx, args[1], args[2], args[3], args[4])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("registered and logged in as %s\n", id.Name)
	case "logout":
		if err := gate.Logout(ctx); err != nil {
			fatal(err)
		}
		fmt.Println("logged out")
	case "whoami":
		id, ok := gate.Current()
		if !ok {
			fmt.Println("not logged in")
			return
		}
		fmt.Printf("%s <%s> role=%s session expires %s\n", id.Name, id.Email, id.Role, id.Expires.Format(time.RFC3339))
	case "book":
		if err := book(ctx, gate, catalog, flow, args[1:]); err != nil {
			fatal(err)
		}
	case "bookings":
		id, err := gate.Fresh(ctx)
		if err != nil {
			fatal(err)
		}
		bookings, err := api.MyBookings(ctx, id.Token)
		if err != nil {
			fatal(err)
		}
		for _, b := range bookings {
			fmt.Printf("%s  %-24s %s %s  %s\n", b.Ref, b.CarName, b.Date, b.TimeSlot, b.Status)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func book(ctx context.Context, gate *portal.Gate, catalog *portal.Catalog, flow *portal.Flow, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	slug := fs.String("car", "", "car slug (required)")
	date := fs.String("date", "", "date, YYYY-MM-DD (required)")
	slot := fs.String("time", "", "time slot, e.g. 10:00 (required)")
	showroom := fs.String("showroom", "", "showroom name (required)")
	notes := fs.String("notes", "", "optional notes for the sales team")
	if err := fs.Parse(args); err != nil {
		return err
	}

	car, err := catalog.BySlug(ctx, *slug)
	if err != nil {
		return err
	}
	id, ok := gate.Current()
	if !ok {
		return portal.ErrUnauthenticated
	}

	d := portal.NewDraft(car)
	d.Name = id.Name
	d.Email = id.Email
	d.Phone = id.Phone
	d.Showroom = *showroom
	d.TimeSlot = *slot
	d.Notes = *notes
	if *date != "" {
		when, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", *date, err)
		}
		d.Date = when
	}

	b, err := flow.Submit(ctx, d)
	if err != nil {
		var ve *portal.ValidationError
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve.Fields))
			for f := range ve.Fields {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", f, ve.Fields[f])
			}
		}
		return err
	}

	fmt.Printf("booked %s on %s at %s (ref %s)\n", b.CarName, b.Date, b.TimeSlot, b.Ref)
	if link, err := portal.WhatsAppLink(b, car.Sales.Phone); err == nil {
		fmt.Printf("confirm with %s: %s\n", car.Sales.Name, link)
	} else if errors.Is(err, portal.ErrMissingSalesContact) {
		fmt.Println("no sales contact on record; the showroom will reach out")
	}
	return nil
}

func printCar(c portal.Car) {
	fmt.Printf("%s (%s, %d)\n", c.Name, c.Brand, c.Year)
	fmt.Printf("  %s %s, %d seats\n", c.EngineType, c.BodyType, c.Capacity)
	fmt.Printf("  Rp %d at %s\n", c.Price, c.Showroom)
	if c.Sales.Name != "" {
		fmt.Printf("  sales: %s (%s)\n", c.Sales.Name, c.Sales.Phone)
	}
	if c.Description != "" {
		fmt.Printf("  %s\n", c.Description)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: portal [-api URL] <command>

commands:
  list [search]                          browse the catalog
  show <slug>                            car details
  book -car <slug> -date <YYYY-MM-DD> -time <HH:MM> -showroom <name> [-notes s]
  bookings                               your test-drive bookings
  login <email> <password>
  register <name> <email> <phone> <password>
  logout
  whoami`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "portal:", err)
	os.Exit(1)
}
