/*
Package client provides a Go client library for the Info plane's
text protocol (spec.md 2): an 8-byte framed header followed by a
semicolon/newline-delimited body, used both for bare lookups
("name\n") and commands ("name:k=v;k=v\n").

# Architecture

	┌──────────────────── APPLICATION CODE ──────────────────────┐
	│                                                              │
	│  import "github.com/cuemby/infod/pkg/client"                 │
	│                                                              │
	│  c, err := client.Dial("127.0.0.1:3003")                    │
	│  lines, err := c.Request("statistics\n")                    │
	│                                                              │
	└──────────────────┬───────────────────────────────────────┘
	                   │
	┌──────────────────▼──── pkg/client ─────────────────────────┐
	│                                                              │
	│  ┌──────────────────────────────────────────────┐          │
	│  │           Client Wrapper                      │          │
	│  │  - Frame encode/decode                        │          │
	│  │  - Reply-line parsing (name\tvalue)           │          │
	│  │  - Connection lifecycle                       │          │
	│  └──────────────────┬───────────────────────────┘          │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐          │
	│  │              net.Conn (TCP)                    │          │
	│  └──────────────────┬───────────────────────────┘          │
	└─────────────────────┼────────────────────────────────────┘
	                      │ tcp
	                      ▼
	                   infod

# Usage

	c, err := client.Dial("127.0.0.1:3003")
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	lines, err := c.Request("statistics\n")
	for _, l := range lines {
		fmt.Println(l.Name, l.Value)
	}

	lines, err = c.Request("config-set:context=service;ticker-interval=2\n")
*/
package client
