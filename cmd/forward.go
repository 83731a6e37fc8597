// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/mastlink/pkg/mastlink"
)

var (
	forwardURL      string
	forwardUsername string
)

// eventRecord is the CBOR wire format for a forwarded event.
type eventRecord struct {
	Timestamp int64  `cbor:"1,keyasint"`
	Type      string `cbor:"2,keyasint"`
	Action    int    `cbor:"3,keyasint"`
	DeviceNr  int    `cbor:"4,keyasint"`
	Data      []byte `cbor:"5,keyasint"`
}

var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Forward master events to a remote collector",
	Long: `Subscribe to the master's push traffic and forward each event to a
remote collector over WebSocket, encoded as a CBOR record per event.
Events arriving while the collector is unreachable are dropped; the
uplink reconnects with backoff.

If a username is given, HTTP Basic authentication is used. The password
is taken from the MASTLINK_PASSWORD environment variable or prompted.`,
	RunE: runForward,
}

func init() {
	forwardCmd.Flags().StringVar(&forwardURL, "forward-url", "", "Collector WebSocket URL (ws:// or wss://)")
	forwardCmd.Flags().StringVar(&forwardUsername, "forward-username", "", "Username for collector authentication")
	forwardCmd.MarkFlagRequired("forward-url")
	rootCmd.AddCommand(forwardCmd)
}

// eventUplink owns the collector connection and reconnects on send failure.
type eventUplink struct {
	url    string
	header http.Header
	conn   *websocket.Conn
}

func newEventUplink(rawURL, username string) (*eventUplink, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid collector URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("collector URL must use ws:// or wss:// scheme, got: %s", u.Scheme)
	}

	header := http.Header{}
	if username != "" {
		password, err := GetPassword()
		if err != nil {
			return nil, err
		}
		req := &http.Request{Header: header}
		req.SetBasicAuth(username, password)
	}

	return &eventUplink{url: rawURL, header: header}, nil
}

func (u *eventUplink) dial() error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(u.url, u.header)
	if err != nil {
		return fmt.Errorf("failed to connect to collector: %w", err)
	}
	u.conn = conn
	return nil
}

// send encodes the record as CBOR and writes it as a binary message. On
// write failure the connection is dropped and redialed once; the record
// is lost if the redial also fails.
func (u *eventUplink) send(rec eventRecord) error {
	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if u.conn == nil {
		if err := u.dial(); err != nil {
			return err
		}
	}
	if err := u.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		u.conn.Close()
		u.conn = nil
		if err := u.dial(); err != nil {
			return err
		}
		return u.conn.WriteMessage(websocket.BinaryMessage, data)
	}
	return nil
}

func (u *eventUplink) close() {
	if u.conn != nil {
		u.conn.Close()
		u.conn = nil
	}
}

func runForward(cmd *cobra.Command, args []string) error {
	uplink, err := newEventUplink(forwardURL, forwardUsername)
	if err != nil {
		return err
	}
	defer uplink.close()
	if err := uplink.dial(); err != nil {
		return err
	}

	engine, conn, connInfo, err := openEngine()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer engine.Stop()

	fmt.Printf("Mastlink - Event Forwarder\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Collector: %s\n", forwardURL)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	consumer := mastlink.NewBackgroundConsumer(
		mastlink.EventInformation(), 0, func(fields mastlink.Fields) {
			event, err := mastlink.ParseEvent(fields)
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad event: %v\n", err)
				return
			}
			rec := eventRecord{
				Timestamp: time.Now().UnixMilli(),
				Type:      event.Type.String(),
				Action:    event.Action,
				DeviceNr:  event.DeviceNr,
				Data:      event.Data,
			}
			if err := uplink.send(rec); err != nil {
				fmt.Fprintf(os.Stderr, "forward failed: %v\n", err)
			}
		})
	engine.RegisterBackgroundConsumer(consumer)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	fmt.Printf("\nExiting... (%d events dropped)\n", consumer.Dropped())
	return nil
}
