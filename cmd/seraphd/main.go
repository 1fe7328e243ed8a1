package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/grandcat/zeroconf"
	"github.com/knadh/koanf"
	"github.com/spf13/cobra"

	"github.com/nasa-jpl/seraph/generichttp"
	"github.com/nasa-jpl/seraph/mmio"
	"github.com/nasa-jpl/seraph/seraph"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "seraphd.yml"
	k              = koanf.New(".")
)

// simulate overrides the configuration's simulate key from the command line
var simulate bool

// simulatedPeriod is how often the simulated card raises a period interrupt
const simulatedPeriod = 20 * time.Millisecond

var rootCmd = &cobra.Command{
	Use:   "seraphd",
	Short: "serve a MARIAN Seraph audio card over HTTP",
	Long: `seraphd takes ownership of a MARIAN Seraph PCIe audio card and exposes its
mixer controls, streams, and status over HTTP.  Settings are read from
seraphd.yml in the working directory, or the file given with --config.
Run seraphd mkconf to write one populated with the defaults.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the server",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

var mkconfCmd = &cobra.Command{
	Use:   "mkconf",
	Short: "write the current configuration to " + ConfigFileName,
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		mkconf()
	},
}

var confCmd = &cobra.Command{
	Use:   "conf",
	Short: "print the configuration to stdout",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		printconf()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("seraphd version %v\n", Version)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "list the MARIAN cards on the PCI bus",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		if err := scan(os.Stdout, mmio.SysfsPCI); err != nil {
			log.Fatal(err)
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print the status report of the running server",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		if err := status(os.Stdout, loadConfig()); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	cobra.OnInitialize(setupconfig)
	rootCmd.PersistentFlags().StringVar(&ConfigFileName, "config", ConfigFileName, "configuration file")
	runCmd.Flags().BoolVar(&simulate, "simulate", false, "run against an in-memory card instead of hardware")
	rootCmd.AddCommand(runCmd, mkconfCmd, confCmd, versionCmd, scanCmd, statusCmd)
}

func mkconf() {
	c := loadConfig()
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := loadConfig()
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

// scan prints one line per MARIAN function found under root
func scan(w io.Writer, root string) error {
	devs, err := mmio.Scan(root, seraph.PCIVendor)
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		return mmio.ErrNoDevice
	}
	for _, d := range devs {
		name := "unsupported"
		if m, ok := seraph.ModelForDevice(d.Device); ok {
			name = m.String()
		}
		fmt.Fprintf(w, "%s\t%s\n", d, name)
	}
	return nil
}

// localURL is the URL of path on the server configured by c
func localURL(c Config, path string) string {
	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil || host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + generichttp.SubMuxSanitize(c.Root) + path
}

func status(w io.Writer, c Config) error {
	resp, err := http.Get(localURL(c, "/status"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server replied %s", resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// announce registers the server over mDNS, returning nil when
// announcement is disabled
func announce(c Config) (*zeroconf.Server, error) {
	if !c.Zeroconf {
		return nil, nil
	}
	_, p, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return nil, err
	}
	txt := []string{"root=" + generichttp.SubMuxSanitize(c.Root), "version=" + Version}
	return zeroconf.Register(c.ZeroconfName, "_seraph._tcp", "local.", port, txt, nil)
}

func run() {
	c := loadConfig()
	if simulate {
		c.Simulate = true
	}
	hw, err := openHardware(c)
	if err != nil {
		log.Fatal(err)
	}
	mux, err := BuildMux(c, hw.card)
	if err != nil {
		hw.Close()
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go hw.serviceInterrupts(ctx, simulatedPeriod)

	zc, err := announce(c)
	if err != nil {
		log.Println("zeroconf registration failed:", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGABRT, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigs
		log.Println("shutting down")
		cancel()
		if zc != nil {
			zc.Shutdown()
		}
		hw.Close()
		os.Exit(0)
	}()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Println("notifying systemd:", err)
	} else if ok {
		log.Println("notified systemd")
	}
	log.Println("now listening for requests at ", c.Addr, generichttp.SubMuxSanitize(c.Root))
	log.Fatal(http.ListenAndServe(c.Addr, mux))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
