package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	flag "github.com/spf13/pflag"

	"github.com/willie68/go_slippymap/configs"
	"github.com/willie68/go_slippymap/internal"
	"github.com/willie68/go_slippymap/internal/api"
	"github.com/willie68/go_slippymap/internal/config"
	"github.com/willie68/go_slippymap/internal/logging"
	"github.com/willie68/go_slippymap/internal/shttp"
	"github.com/willie68/go_slippymap/pkg/extstrgutils"
	"github.com/willie68/go_slippymap/pkg/fileutils"
)

var (
	log         *slog.Logger
	configFile  string
	showVersion bool
	initConfig  bool
	zoom        int
	providerArg string
	mapType     string
	myPosition  string
	port        int
)

func init() {
	flag.BoolVarP(&initConfig, "init", "i", false, "init config, writes out a default config.")
	flag.BoolVarP(&showVersion, "version", "v", false, "showing the version")
	flag.StringVarP(&configFile, "config", "c", "config.yaml", "this is the path and filename to the config file")
	flag.IntVarP(&port, "port", "p", 0, "overwrite the port (8580) of the config")
	flag.IntVarP(&zoom, "zoom", "z", -1, "overwrite the start zoom (0..19) of the config")
	flag.StringVarP(&providerArg, "system", "s", "", "overwrite the tile provider: OpenStreetMap, Geoportal or Google")
	flag.StringVarP(&mapType, "maptype", "t", "", "overwrite the google map type: Standard, Satellite, Hybrid, Roads or Terrain")
	flag.StringVarP(&myPosition, "myposition", "m", "", "overwrite my position, lon,lat in degrees")
	flag.Usage = func() {
		fmt.Printf("Usage of %s:\n", os.Args[0])
		fmt.Println("more on https://github.com/willie68/go_slippymap")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("examples:")
		fmt.Println("write the default config and run the map server with it")
		fmt.Printf("%s -i > config.yaml\n", os.Args[0])
		fmt.Printf("%s -c config.yaml\n", os.Args[0])
		fmt.Println("start with google satellite tiles centered on Wroclaw at zoom 14")
		fmt.Printf("%s -c config.yaml -s google -t satellite -m 17.03664,51.09916 -z 14\n", os.Args[0])
	}
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Println(config.NewVersion().String())
		os.Exit(0)
	}
	if initConfig {
		fmt.Println(configs.ConfigFile)
		os.Exit(0)
	}
	if !fileutils.FileExists(configFile) {
		fmt.Fprint(os.Stderr, "no config given or dosn't exists.\r\n\r\n")
		flag.Usage()
		os.Exit(1)
	}
	err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	params := []config.Parameter{
		config.WithPort(port),
		config.WithZoom(zoom),
		config.WithProvider(providerArg),
		config.WithMapType(mapType),
	}
	if myPosition != "" {
		lon, lat, err := extstrgutils.ParseFloatPair(myPosition)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid position %q: %v\r\n", myPosition, err)
			os.Exit(1)
		}
		params = append(params, config.WithMyPosition(lon, lat))
	}
	config.SetParameter(params...)

	js := config.JSON()
	if js == "" {
		panic("error on marshal config to json")
	}
	fmt.Printf("Config:\n%s\n", js)

	inj := do.New()
	internal.Init(inj)
	log = logging.New("main")
	log.Info("starting slippy map service", "version", config.NewVersion().String())

	router, err := api.APIRoutes(inj)
	if err != nil {
		log.Error(fmt.Sprintf("could not create api routes: %v", err))
		os.Exit(1)
	}
	healthRouter := api.HealthRoutes(inj)

	sh := do.MustInvoke[*shttp.SHttp](inj)
	if err := sh.StartServers(router, healthRouter); err != nil {
		log.Error(fmt.Sprintf("could not start servers: %v", err))
		internal.Stop(inj)
		os.Exit(1)
	}

	log.Info("waiting for clients")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-c:
	case <-sh.Done():
		log.Error("http server stopped", "error", sh.Err())
	}

	_ = sh.ShutdownServers()
	log.Info("server finished")

	internal.Stop(inj)
	os.Exit(0)
}
