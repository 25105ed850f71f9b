// Command signctl drives a single sign from the shell: configure it, push
// pages of pixel data to it, flip between them, or shut it down.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/flipdot/signctl"
	"github.com/flipdot/signctl/bus"
	"github.com/flipdot/signctl/config"
	"github.com/flipdot/signctl/proto"
	"github.com/flipdot/signctl/transport"
)

var CmdLog = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

var (
	configFlag  = pflag.StringP("config", "c", "", "Path to a bus topology `file` (required unless --virtual).")
	addressFlag = pflag.Uint16P("address", "a", 0, "Sign `address` to act on (required with --config naming more than one sign).")
	virtualFlag = pflag.Bool("virtual", false, "Drive an in-process VirtualSign instead of a real bus, for testing.")
	pagesFlag   = pflag.IntP("pages", "n", 1, "Number of blank pages to send with the send-pages command.")
	verboseFlag = pflag.BoolP("verbose", "v", false, "Log every bus exchange.")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <configure|send-pages|show|next|shutdown>\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *verboseFlag {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	sign := mustSign()

	var err error
	switch cmd := pflag.Arg(0); cmd {
	case "configure":
		err = sign.Configure()
	case "send-pages":
		err = sendBlankPages(sign, *pagesFlag)
	case "show":
		err = sign.ShowLoadedPage()
	case "next":
		err = sign.LoadNextPage()
	case "shutdown":
		err = sign.ShutDown()
	default:
		CmdLog.Fatalf("unknown command %q", cmd)
	}

	if err != nil {
		CmdLog.Fatal(err)
	}
}

func sendBlankPages(sign *signctl.Sign, n int) error {
	if n < 1 {
		n = 1
	}
	pages := make([]proto.Page, n)
	for i := range pages {
		pages[i] = sign.CreatePage(proto.PageID(i))
	}
	style, err := sign.SendPages(pages...)
	if err != nil {
		return err
	}
	CmdLog.Infof("pages sent, flip style: %s", style)
	return nil
}

func mustSign() *signctl.Sign {
	if *virtualFlag {
		address := proto.Address(*addressFlag)
		b := bus.NewVirtualSignBus(bus.NewVirtualSign(address))
		return signctl.New(b, address, proto.Max3000Side90x7)
	}

	if *configFlag == "" {
		CmdLog.Fatal("either --config or --virtual is required")
	}
	cfg, err := config.Load(*configFlag)
	if err != nil {
		CmdLog.Fatal(err)
	}
	if len(cfg.Signs) == 0 {
		CmdLog.Fatalf("no signs listed in %s", *configFlag)
	}

	signCfg := cfg.Signs[0]
	if len(cfg.Signs) > 1 {
		if !pflag.CommandLine.Changed("address") {
			CmdLog.Fatal("--address is required when the config lists more than one sign")
		}
		found := false
		for _, s := range cfg.Signs {
			if uint16(s.Address) == uint16(*addressFlag) {
				signCfg, found = s, true
				break
			}
		}
		if !found {
			CmdLog.Fatalf("no sign at address %s in %s", strconv.Itoa(int(*addressFlag)), *configFlag)
		}
	}

	serial, err := transport.OpenSerial(cfg.Device)
	if err != nil {
		CmdLog.Fatal(err)
	}

	return signctl.New(bus.Serialize(serial), signCfg.Address, signCfg.ResolveSignType())
}
