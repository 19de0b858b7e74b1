package client

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"

	"github.com/replkv/rkv/lib/record"
	rpcclient "github.com/replkv/rkv/rpc/client"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load-test a rkv node with post creates and title listings",
	Args:  cobra.NoArgs,
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().Int("workers", 10, "Concurrent workers")
	benchCmd.Flags().Int("duration-sec", 10, "How long to run")
	benchCmd.Flags().Int("titles-every", 5, "Make every Nth request of a worker a titles listing (the others are creates)")
}

func runBench(cmd *cobra.Command, _ []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	durationSec, _ := cmd.Flags().GetInt("duration-sec")
	titlesEvery, _ := cmd.Flags().GetInt("titles-every")
	if workers < 1 {
		workers = 1
	}
	if titlesEvery < 1 {
		titlesEvery = 1
	}

	accountID := fmt.Sprintf("bench-%d", time.Now().UnixMilli())
	if _, err := doPost("/account/create", []record.Pair{
		{Key: "id", Value: accountID},
		{Key: "name", Value: "bench"},
	}); err != nil {
		return fmt.Errorf("creating bench account: %w", err)
	}

	fmt.Printf("benchmarking %s: %d workers for %ds (account %s)\n\n",
		endpoint, workers, durationSec, accountID)

	newHist := func() gometrics.Histogram {
		return gometrics.NewHistogram(gometrics.NewExpDecaySample(1028, 0.015))
	}
	createHist := newHist()
	titlesHist := newHist()
	errCount := gometrics.NewCounter()

	timeout := time.Duration(timeoutMs) * time.Millisecond
	deadline := time.Now().Add(time.Duration(durationSec) * time.Second)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; time.Now().Before(deadline); i++ {
				if i%titlesEvery == 0 {
					start := time.Now()
					res := rpcclient.Post(endpoint, "/post/titles", "limit=20", timeout)
					titlesHist.Update(time.Since(start).Microseconds())
					if res.Status != 200 {
						errCount.Inc(1)
					}
					continue
				}

				body := record.BuildForm([]record.Pair{
					{Key: "account_id", Value: accountID},
					{Key: "title", Value: "bench post " + strconv.Itoa(i)},
					{Key: "content", Value: "generated load"},
				})
				start := time.Now()
				res := rpcclient.Post(endpoint, "/post/create", body, timeout)
				createHist.Update(time.Since(start).Microseconds())
				if res.Status != 200 {
					errCount.Inc(1)
				}
			}
		}()
	}
	wg.Wait()

	printHist := func(name string, h gometrics.Histogram) {
		ps := h.Percentiles([]float64{0.5, 0.95, 0.99})
		fmt.Printf("%-12s count=%-8d mean=%8.0fus p50=%8.0fus p95=%8.0fus p99=%8.0fus\n",
			name, h.Count(), h.Mean(), ps[0], ps[1], ps[2])
	}
	printHist("post/create", createHist)
	printHist("post/titles", titlesHist)
	fmt.Printf("%-12s count=%d\n", "errors", errCount.Count())

	return nil
}
