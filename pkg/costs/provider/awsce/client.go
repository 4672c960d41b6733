// Package awsce implements provider.Client on top of the AWS Cost Explorer
// and STS APIs.
package awsce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/saturn/pkg/costs/provider"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// maxPages bounds pagination of a single query.
const maxPages = 100

// CostExplorerAPI is the subset of the Cost Explorer client used here.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, in *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// STSAPI is the subset of the STS client used here.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Config configures the client.
type Config struct {
	Region  string
	Profile string

	// Timeout bounds each API operation including all pages. Zero disables it.
	Timeout time.Duration
}

// Client implements provider.Client against AWS.
type Client struct {
	ce      CostExplorerAPI
	sts     STSAPI
	timeout time.Duration
	logger  *slog.Logger
}

var _ provider.Client = (*Client)(nil)

// New loads the default AWS credential chain and creates a client. SDK-level
// retries are disabled; callers retry through provider.Retrier.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewWithAPIs(costexplorer.NewFromConfig(awsCfg), sts.NewFromConfig(awsCfg), cfg.Timeout, logger), nil
}

// NewWithAPIs creates a client from explicit API implementations.
func NewWithAPIs(ce CostExplorerAPI, stsClient STSAPI, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		ce:      ce,
		sts:     stsClient,
		timeout: timeout,
		logger:  logger.With("component", "provider.awsce"),
	}
}

// GetCostAndUsage runs a grouped cost query and follows pagination until
// the result set is complete.
func (c *Client) GetCostAndUsage(ctx context.Context, q provider.Query) (*provider.Result, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	metric := q.Metric
	if metric == "" {
		metric = provider.DefaultMetric
	}

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(q.Start),
			End:   aws.String(q.End),
		},
		Granularity: granularity(q.Granularity),
		Metrics:     []string{metric},
	}
	for _, g := range q.GroupBy {
		input.GroupBy = append(input.GroupBy, cetypes.GroupDefinition{
			Type: groupType(g.Type),
			Key:  aws.String(g.Key),
		})
	}

	result := &provider.Result{}
	for page := 0; page < maxPages; page++ {
		out, err := c.ce.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, err
		}

		for _, rbt := range out.ResultsByTime {
			result.Buckets = append(result.Buckets, convertBucket(rbt, metric))
		}

		if out.NextPageToken == nil || *out.NextPageToken == "" {
			return result, nil
		}
		input.NextPageToken = out.NextPageToken
	}

	c.logger.Warn("cost query truncated at page limit", "pages", maxPages, "start", q.Start, "end", q.End)
	return result, nil
}

// GetCallerIdentity returns the identity of the configured credentials.
func (c *Client) GetCallerIdentity(ctx context.Context) (*provider.Identity, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, err
	}
	return &provider.Identity{
		AccountID: aws.ToString(out.Account),
		ARN:       aws.ToString(out.Arn),
		UserID:    aws.ToString(out.UserId),
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func convertBucket(rbt cetypes.ResultByTime, metric string) provider.TimeBucket {
	bucket := provider.TimeBucket{Estimated: rbt.Estimated}
	if rbt.TimePeriod != nil {
		bucket.Start = aws.ToString(rbt.TimePeriod.Start)
		bucket.End = aws.ToString(rbt.TimePeriod.End)
	}
	for _, g := range rbt.Groups {
		group := provider.Group{Keys: g.Keys}
		if mv, ok := g.Metrics[metric]; ok {
			group.Amount = aws.ToString(mv.Amount)
			group.Unit = aws.ToString(mv.Unit)
		}
		bucket.Groups = append(bucket.Groups, group)
	}
	return bucket
}

func granularity(g provider.Granularity) cetypes.Granularity {
	if g == provider.GranularityMonthly {
		return cetypes.GranularityMonthly
	}
	return cetypes.GranularityDaily
}

func groupType(t string) cetypes.GroupDefinitionType {
	if t == provider.GroupTypeTag {
		return cetypes.GroupDefinitionTypeTag
	}
	return cetypes.GroupDefinitionTypeDimension
}
