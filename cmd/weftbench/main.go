// Command weftbench drives concurrent calls through the client pool and
// reports throughput/latency, the same shape as the original project's
// tools/benchmark.py harness.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/weftrpc/weft/pkg/client"
	"github.com/weftrpc/weft/pkg/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConcurrent int
	flagLoop       int
	flagMode       string
	flagDeclare    string
	flagSleep      float64
	flagURI        string
	flagHost       string
	flagPort       int
	flagPoolSize   int
	flagConfigFile string
)

var rootCmd = &cobra.Command{
	Use:   "weftbench",
	Short: "Benchmark a weftd server",
	Long: `weftbench issues concurrent calls to a declared method through the
client pool and reports total time, completed requests, average latency,
and throughput.

Examples:
  # 50 concurrent callers, 200 calls each, over the sync pool
  weftbench -c 50 -l 200 -m sync -d hello_world_sync

  # Same against the async/cooperative pool
  weftbench -c 50 -l 200 -m async -d hello_world_async

  # Against a non-default server
  weftbench --uri tcp://10.0.0.5:10050 -c 10 -l 100`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.Flags().IntVarP(&flagConcurrent, "concurrent", "c", 1, "Number of concurrent callers")
	rootCmd.Flags().IntVarP(&flagLoop, "loop", "l", 1, "Number of calls each caller makes")
	rootCmd.Flags().StringVarP(&flagMode, "mode", "m", "sync", "Pool mode: sync or async")
	rootCmd.Flags().StringVarP(&flagDeclare, "declare", "d", "hello_world_sync", "Method name to call")
	rootCmd.Flags().Float64Var(&flagSleep, "sleep", 0, "Seconds the remote handler should sleep per call")
	rootCmd.Flags().StringVar(&flagURI, "uri", "", "Connection URI (tcp://host:port), overrides --host/--port")
	rootCmd.Flags().StringVar(&flagHost, "host", "", "Server host (default: from config)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "Server port (default: from config)")
	rootCmd.Flags().IntVar(&flagPoolSize, "pool-size", 0, "Connection pool size (default: from config)")
	rootCmd.Flags().StringVar(&flagConfigFile, "config", "", "Path to client config file")
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func resolveClientConfig(flags *pflag.FlagSet) (client.Config, error) {
	cfg, err := config.LoadClient(flagConfigFile, flags)
	if err != nil {
		return client.Config{}, err
	}
	cc := cfg.Client

	if flagHost != "" {
		cc.Host = flagHost
	}
	if flagPort != 0 {
		cc.Port = flagPort
	}
	if flagURI != "" {
		uri, err := config.ParseURI(flagURI)
		if err != nil {
			return client.Config{}, fmt.Errorf("invalid --uri: %w", err)
		}
		cc.Host = uri.Host
		if uri.Port != 0 {
			cc.Port = uri.Port
		}
	}
	if flagPoolSize != 0 {
		cc.PoolSize = flagPoolSize
	}
	return cc, nil
}

type result struct {
	completed int64
	totalTime time.Duration
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	mode := strings.ToLower(flagMode)
	if mode != "sync" && mode != "async" {
		return fmt.Errorf("invalid --mode %q: must be sync or async", flagMode)
	}

	cc, err := resolveClientConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if flagPoolSize == 0 {
		cc.PoolSize = flagConcurrent
	}

	var cl *client.Client
	if mode == "async" {
		cl = client.NewAsyncClient(cc)
	} else {
		cl = client.NewSyncClient(cc)
	}
	defer cl.Close()

	callArgs := []any{}
	if flagSleep > 0 {
		callArgs = append(callArgs, flagSleep)
	}

	var completed int64
	var totalNanos int64
	var firstOnce sync.Once

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < flagConcurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < flagLoop; j++ {
				callStart := time.Now()
				res, err := cl.Call(flagDeclare, callArgs)
				elapsed := time.Since(callStart)
				if err != nil {
					fmt.Fprintf(os.Stderr, "call error: %v\n", err)
					continue
				}
				firstOnce.Do(func() {
					fmt.Println(res)
				})
				atomic.AddInt64(&completed, 1)
				atomic.AddInt64(&totalNanos, int64(elapsed))
			}
		}()
	}
	wg.Wait()
	spend := time.Since(start)

	printResult(spend, flagConcurrent*flagLoop, completed, time.Duration(totalNanos))
	return nil
}

func printResult(spend time.Duration, totalRequests int, completed int64, totalTime time.Duration) {
	fmt.Printf("total flow time: %s\n", formatSeconds(spend))
	fmt.Printf("total request: %d\n", totalRequests)
	fmt.Printf("finish request: %d\n", completed)
	fmt.Printf("cost time: %s\n", formatSeconds(totalTime))
	if completed != 0 {
		fmt.Printf("average time: %s\n", formatSeconds(totalTime/time.Duration(completed)))
	}
	if spend != 0 {
		qps := float64(completed) / spend.Seconds()
		fmt.Printf("qps: %s\n", strconv.FormatFloat(qps, 'f', 8, 64))
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 8, 64)
}
