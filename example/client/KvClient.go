package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"kvrouter"
	"kvrouter/utils/log"
)

const usage = `usage: client [flags] <command> [args]

commands:
  get <key>
  set <key> <value>
  rem <key>
  add <ip> <port> <weight>
  del <ip> <port>
`

func main() {
	backend := flag.String("backend", "127.0.0.1:5556", "backend host:port")
	timeout := flag.Duration("timeout", 5*time.Second, "timeout per command")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	log.DefaultLogger()
	defer log.Close()

	target, err := kvrouter.ParseBackendTarget(*backend)
	if err != nil {
		log.Errorf("bad backend address: %v", err)
		os.Exit(2)
	}
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := kvrouter.Connect(target, kvrouter.WithTimeout(*timeout))
	ctx := context.Background()

	var reply string
	cmd, rest := strings.ToUpper(args[0]), args[1:]
	switch {
	case cmd == kvrouter.CmdGet && len(rest) == 1:
		reply, err = client.Get(ctx, rest[0])
	case cmd == kvrouter.CmdSet && len(rest) == 2:
		reply, err = client.Set(ctx, rest[0], rest[1])
	case cmd == kvrouter.CmdRem && len(rest) == 1:
		reply, err = client.Remove(ctx, rest[0])
	case cmd == kvrouter.CmdAdd && len(rest) == 3:
		reply, err = client.Add(ctx, rest[0], rest[1], rest[2])
	case cmd == kvrouter.CmdDel && len(rest) == 2:
		reply, err = client.Del(ctx, rest[0], rest[1])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Errorf("%s failed: %v", cmd, err)
		log.Close()
		os.Exit(1)
	}
	fmt.Print(reply)
}
