// Command gymctl is a terminal client for the gym-management API. It keeps
// the session in a state file between invocations, so a login followed by
// authenticated requests works across separate runs:
//
//	gymctl -base-url http://localhost:8000 login admin@gym.com secret
//	gymctl -base-url http://localhost:8000 session
//	gymctl -base-url http://localhost:8000 get /api/classes
//	gymctl -base-url http://localhost:8000 logout
//
// With -redis-addr the session mirror lives in Redis instead of the state
// file, letting several terminals share one session.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gymclient "github.com/MrEthical07/gymclient"
	"github.com/MrEthical07/gymclient/metrics/export/prometheus"
	"github.com/MrEthical07/gymclient/state"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		baseURL   = flag.String("base-url", os.Getenv("GYM_API_URL"), "origin of the gym-management API (or GYM_API_URL)")
		statePath = flag.String("state", defaultStatePath(), "session state file")
		redisAddr = flag.String("redis-addr", "", "redis address for a shared session mirror; overrides -state")
		timeout   = flag.Duration("timeout", 10*time.Second, "per-command timeout")
		jsonOut   = flag.Bool("json", false, "print machine-readable output")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, cleanup, err := buildClient(*baseURL, *statePath, *redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gymctl: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := client.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gymctl: initialize session: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, client, args, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "gymctl: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("bad arguments")

func run(ctx context.Context, client *gymclient.Client, args []string, jsonOut bool) error {
	switch cmd := args[0]; cmd {
	case "login":
		if len(args) != 3 {
			return fmt.Errorf("%w: login <email> <password>", errUsage)
		}
		identity, err := client.Login(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", identity.Email, identity.Role)
		return nil

	case "register":
		if len(args) < 4 || len(args) > 5 {
			return fmt.Errorf("%w: register <email> <full name> <password> [role]", errUsage)
		}
		role := gymclient.RoleMember
		if len(args) == 5 {
			parsed, err := gymclient.ParseRole(args[4])
			if err != nil {
				return err
			}
			role = parsed
		}
		identity, err := client.Register(ctx, args[1], args[2], args[3], role)
		if err != nil {
			return err
		}
		fmt.Printf("registered and logged in as %s (%s)\n", identity.Email, identity.Role)
		return nil

	case "logout":
		client.Logout(ctx)
		fmt.Println("logged out")
		return nil

	case "session":
		return printSession(client, jsonOut)

	case "nav":
		items := client.Navigation()
		if items == nil {
			return errors.New("no session; log in first")
		}
		if jsonOut {
			return printJSON(items)
		}
		for _, item := range items {
			fmt.Printf("%-24s %s\n", item.Path, item.Label)
		}
		return nil

	case "get":
		if len(args) != 2 {
			return fmt.Errorf("%w: get <path>", errUsage)
		}
		var out json.RawMessage
		if err := client.GetJSON(ctx, args[1], &out); err != nil {
			return err
		}
		os.Stdout.Write(out)
		fmt.Println()
		return nil

	case "metrics":
		fmt.Print(prometheus.NewExporter(client).Render())
		return nil

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func buildClient(baseURL, statePath, redisAddr string) (*gymclient.Client, func(), error) {
	builder := gymclient.New().
		WithBaseURL(baseURL).
		WithLatencyHistograms(true)

	cleanup := func() {}
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		builder = builder.WithStateStore(state.NewRedis(rdb, "gymctl"))
		cleanup = func() { _ = rdb.Close() }
	} else {
		builder = builder.WithStateStore(state.NewFile(statePath))
	}

	client, err := builder.Build()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, func() {
		client.Close()
		cleanup()
	}, nil
}

func printSession(client *gymclient.Client, jsonOut bool) error {
	current := client.Session()
	if jsonOut {
		return printJSON(map[string]any{
			"status":   current.Status.String(),
			"identity": current.Identity,
		})
	}
	fmt.Printf("status: %s\n", current.Status)
	if current.Identity != nil {
		fmt.Printf("user:   %s <%s>\n", current.Identity.FullName, current.Identity.Email)
		fmt.Printf("role:   %s\n", current.Identity.Role)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".gymclient-session.json"
	}
	return filepath.Join(dir, "gymclient", "session.json")
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: gymctl [flags] <command> [args]

commands:
  login <email> <password>
  register <email> <full name> <password> [role]
  logout
  session
  nav
  get <path>
  metrics

flags:
`)
	flag.PrintDefaults()
}
