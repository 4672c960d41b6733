/*
Package cli provides command-line helpers for the saturn command.

Output Formatting:

Cost reports print as an aligned text table or as JSON:

	format, err := cli.ParseOutputFormat("text")
	if err != nil {
		return err
	}
	if err := cli.PrintReport(os.Stdout, format, rep); err != nil {
		return err
	}

Charts:

ChartDailyCosts sums the daily points of every service and plots them:

	fmt.Println(cli.ChartDailyCosts(rep.Services, 60, 10))

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
