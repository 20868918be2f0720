package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arvindrao/savaari/internal/client"
	"github.com/arvindrao/savaari/internal/fare"
	"github.com/arvindrao/savaari/internal/models"
)

const defaultServer = "http://localhost:8080"

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "register":
		err = cmdRegister(args)
	case "login":
		err = cmdLogin(args)
	case "logout":
		err = client.ClearSession()
	case "estimate":
		err = cmdEstimate(args)
	case "book":
		err = cmdBook(args)
	case "ride":
		err = cmdRide(args)
	case "cancel":
		err = cmdCancel(args)
	case "track":
		err = cmdTrack(args)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("riderctl: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: riderctl <command> [flags]

Commands:
  register   Create a rider account
  login      Log in and store the session
  logout     Drop the stored session
  estimate   Fetch an itemized fare estimate
  book       Request a ride
  ride       Show a ride
  cancel     Cancel a ride
  track      Follow a ride's live events`)
}

func authedClient(server string) (*client.Client, error) {
	c := client.New(server)
	session, err := client.LoadSession()
	if err != nil {
		return nil, err
	}
	if session == nil || session.Token == "" {
		return nil, fmt.Errorf("not logged in, run riderctl login first")
	}
	c.SetToken(session.Token)
	return c, nil
}

func cmdRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	server := fs.String("server", defaultServer, "API server base URL")
	phone := fs.String("phone", "", "phone number")
	name := fs.String("name", "", "rider name")
	email := fs.String("email", "", "email (optional)")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *phone == "" || *name == "" || *password == "" {
		return fmt.Errorf("phone, name and password are required")
	}

	c := client.New(*server)
	resp, err := c.Register(context.Background(), &models.RegisterRequest{
		Phone:    *phone,
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}

	if err := client.SaveSession(&client.Session{Token: resp.Token, User: resp.User}); err != nil {
		return err
	}
	log.Printf("registered and logged in as %s", resp.User.Name)
	return nil
}

func cmdLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	server := fs.String("server", defaultServer, "API server base URL")
	phone := fs.String("phone", "", "phone number")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *phone == "" || *password == "" {
		return fmt.Errorf("phone and password are required")
	}

	c := client.New(*server)
	resp, err := c.Login(context.Background(), *phone, *password)
	if err != nil {
		return err
	}

	if err := client.SaveSession(&client.Session{Token: resp.Token, User: resp.User}); err != nil {
		return err
	}
	log.Printf("logged in as %s", resp.User.Name)
	return nil
}

func cmdEstimate(args []string) error {
	fs := flag.NewFlagSet("estimate", flag.ExitOnError)
	server := fs.String("server", defaultServer, "API server base URL")
	req := rideFlags(fs)
	fs.Parse(args)

	c, err := authedClient(*server)
	if err != nil {
		return err
	}

	session := client.NewEstimateSession(c, fare.DefaultTable())
	estimate, err := session.Estimate(context.Background(), &models.FareEstimateRequest{
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		City:        req.City,
		VehicleType: req.VehicleType,
		SeatCount:   req.SeatCount,
	})
	if err != nil {
		return err
	}

	if estimate.Source == fare.SourceFallback {
		log.Println("server unreachable, showing approximate fare")
	}
	return printJSON(estimate)
}

func cmdBook(args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	server := fs.String("server", defaultServer, "API server base URL")
	req := rideFlags(fs)
	payment := fs.String("payment", "cash", "payment method (cash, wallet, card, upi)")
	mode := fs.String("mode", "regular", "ride mode (regular, pooled)")
	fs.Parse(args)

	c, err := authedClient(*server)
	if err != nil {
		return err
	}

	req.PaymentMethod = *payment
	req.RideMode = *mode

	ride, err := c.RequestRide(context.Background(), req, "")
	if err != nil {
		return err
	}
	return printJSON(ride)
}

func cmdRide(args []string) error {
	fs := flag.NewFlagSet("ride", flag.ExitOnError)
	server := fs.String("server", defaultServer, "API server base URL")
	id := fs.String("id", "", "ride id")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("ride id is required")
	}

	c, err := authedClient(*server)
	if err != nil {
		return err
	}

	ride, err := c.GetRide(context.Background(), *id)
	if err != nil {
		return err
	}
	return printJSON(ride)
}

func cmdCancel(args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	server := fs.String("server", defaultServer, "API server base URL")
	id := fs.String("id", "", "ride id")
	reason := fs.String("reason", "rider cancelled", "cancellation reason")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("ride id is required")
	}

	c, err := authedClient(*server)
	if err != nil {
		return err
	}

	ride, err := c.CancelRide(context.Background(), *id, *reason)
	if err != nil {
		return err
	}
	log.Printf("ride %s is now %s", ride.ID, ride.Status)
	return nil
}

func cmdTrack(args []string) error {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	server := fs.String("server", defaultServer, "API server base URL")
	id := fs.String("id", "", "ride id")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("ride id is required")
	}

	c, err := authedClient(*server)
	if err != nil {
		return err
	}

	ride, err := c.GetRide(context.Background(), *id)
	if err != nil {
		return err
	}
	log.Printf("ride %s is %s", ride.ID, ride.Status)

	tracker := client.NewRideTracker(c, ride.ID, ride.Status, client.Callbacks{
		OnStatusChange: func(s client.RideState) {
			log.Printf("status: %s", s.Display())
		},
		OnLocationUpdate: func(s client.RideState) {
			if s.Lat != nil && s.Lng != nil {
				log.Printf("driver at (%.5f, %.5f)", *s.Lat, *s.Lng)
			}
		},
		OnCancelRejected: func(s client.RideState, err error) {
			log.Printf("cancel rejected, ride is %s: %v", s.Display(), err)
		},
	})
	defer tracker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	stream := client.NewRideStream(c, tracker, ride.ID)
	stream.Run(ctx)

	log.Printf("final status: %s", tracker.State().Display())
	return nil
}

func rideFlags(fs *flag.FlagSet) *models.CreateRideRequest {
	req := &models.CreateRideRequest{}
	fs.Float64Var(&req.Pickup.Lat, "from-lat", 0, "pickup latitude")
	fs.Float64Var(&req.Pickup.Lng, "from-lng", 0, "pickup longitude")
	fs.Float64Var(&req.Dropoff.Lat, "to-lat", 0, "dropoff latitude")
	fs.Float64Var(&req.Dropoff.Lng, "to-lng", 0, "dropoff longitude")
	fs.StringVar(&req.City, "city", "delhi", "city")
	fs.StringVar(&req.VehicleType, "vehicle", "sedan", "vehicle type (auto, mini, sedan, suv)")
	fs.IntVar(&req.SeatCount, "seats", 1, "seat count")
	return req
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
