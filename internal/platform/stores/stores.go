// Package stores builds the canonical profile backend selected by
// configuration and owns the underlying clients.
package stores

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/janisto/ols-profile-service/internal/config"
	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
	"github.com/janisto/ols-profile-service/internal/service/profile"
)

// DefaultConnectTimeout bounds the startup ping retries of each client.
const DefaultConnectTimeout = 20 * time.Second

// healthDoc is read from Firestore to probe connectivity; it need not exist.
const healthDoc = "_healthcheck"

type check struct {
	name string
	ping func(context.Context) error
}

// Stores holds the backend and the clients behind it.
type Stores struct {
	// Backend is the canonical store, wrapped in the read cache when one is configured.
	Backend profile.Backend
	// Redis is set only for the local provider. Rate limiting uses it.
	Redis *redis.Client

	checks  []check
	closers []func(context.Context) error
}

// Open connects the clients for cfg.Provider and verifies each one answers.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}
	var err error
	switch cfg.Provider {
	case config.ProviderAWS:
		err = s.openDynamoDB(ctx, cfg.AWS)
	case config.ProviderGCP:
		err = s.openFirestore(ctx, cfg.Firestore)
	case config.ProviderLocal:
		err = s.openLocal(ctx, cfg.Mongo, cfg.Redis)
	default:
		err = fmt.Errorf("unknown cloud provider %q", cfg.Provider)
	}
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	applog.LogInfo(ctx, "stores opened", zap.String("provider", string(cfg.Provider)))
	return s, nil
}

func (s *Stores) add(name string, ping func(context.Context) error, closeFn func(context.Context) error) {
	s.checks = append(s.checks, check{name: name, ping: ping})
	if closeFn != nil {
		s.closers = append(s.closers, closeFn)
	}
}

func (s *Stores) openDynamoDB(ctx context.Context, cfg config.AWSConfig) error {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})

	ping := func(ctx context.Context) error {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.DynamoDBTable)})
		return err
	}
	if err := waitFor(ctx, "dynamodb", ping); err != nil {
		return err
	}
	s.add("dynamodb", ping, nil)
	s.Backend = profile.NewDynamoDBStore(client, cfg.DynamoDBTable)
	return nil
}

// loadAWSConfig resolves credentials the way the deployment expects: under
// IRSA the default chain picks up the web identity token; otherwise the
// configured role is assumed through STS.
func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, awsconfig.WithHTTPClient(
			awshttp.NewBuildableClient().WithTimeout(cfg.HTTPTimeout)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.UseIRSA || cfg.RoleARN == "" {
		return awsCfg, nil
	}

	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), cfg.RoleARN,
		func(o *stscreds.AssumeRoleOptions) {
			if cfg.SessionName != "" {
				o.RoleSessionName = cfg.SessionName
			}
		})
	awsCfg.Credentials = aws.NewCredentialsCache(provider)
	return awsCfg, nil
}

func (s *Stores) openFirestore(ctx context.Context, cfg config.FirestoreConfig) error {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		creds, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return fmt.Errorf("read firestore credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}
	database := cfg.Database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, database, opts...)
	if err != nil {
		return fmt.Errorf("create firestore client: %w", err)
	}
	closeFn := func(context.Context) error { return client.Close() }

	ping := func(ctx context.Context) error {
		_, err := client.Collection(cfg.Collection).Doc(healthDoc).Get(ctx)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return err
	}
	if err := waitFor(ctx, "firestore", ping); err != nil {
		_ = client.Close()
		return err
	}
	s.add("firestore", ping, closeFn)
	s.Backend = profile.NewFirestoreStore(client, cfg.Collection)
	return nil
}

func (s *Stores) openLocal(ctx context.Context, mcfg config.MongoConfig, rcfg config.RedisConfig) error {
	mongoClient, err := mongo.Connect(ctx, options.Client().
		ApplyURI(mcfg.URI()).
		SetTimeout(mcfg.Timeout).
		SetServerSelectionTimeout(mcfg.Timeout))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	mongoPing := func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	mongoClose := func(ctx context.Context) error { return mongoClient.Disconnect(ctx) }
	if err := waitFor(ctx, "mongodb", mongoPing); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return err
	}
	s.add("mongodb", mongoPing, mongoClose)

	store := profile.NewMongoStore(mongoClient.Database(mcfg.Database).Collection(mcfg.Collection))
	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("create mongodb indexes: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         rcfg.Addr(),
		DB:           rcfg.DB,
		Password:     rcfg.Password,
		DialTimeout:  rcfg.DialTimeout,
		ReadTimeout:  rcfg.ReadTimeout,
		WriteTimeout: rcfg.WriteTimeout,
	})
	redisPing := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	redisClose := func(context.Context) error { return rdb.Close() }
	if err := waitFor(ctx, "redis", redisPing); err != nil {
		_ = rdb.Close()
		return err
	}
	s.add("redis", redisPing, redisClose)

	s.Redis = rdb
	s.Backend = profile.NewCachedBackend(store, profile.NewRedisCache(rdb), rcfg.TTL)
	return nil
}

// waitFor retries ping with exponential backoff until it succeeds, ctx ends
// or DefaultConnectTimeout elapses.
func waitFor(ctx context.Context, name string, ping func(context.Context) error) error {
	return retry(ctx, DefaultConnectTimeout, func() error {
		err := ping(ctx)
		if err != nil {
			applog.LogWarn(ctx, "store not ready", zap.String("store", name), zap.Error(err))
		}
		return err
	}, name)
}

func retry(ctx context.Context, timeout time.Duration, op func() error, name string) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = timeout / 40
	eb.RandomizationFactor = 0
	eb.Multiplier = 2
	eb.MaxInterval = timeout / 4
	eb.MaxElapsedTime = timeout

	if err := backoff.Retry(op, backoff.WithContext(eb, ctx)); err != nil {
		return fmt.Errorf("%s unavailable: %w", name, err)
	}
	return nil
}

// Ping probes every client. The error joins one entry per failing store.
func (s *Stores) Ping(ctx context.Context) error {
	var errs []error
	for _, c := range s.checks {
		if err := c.ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases clients in reverse order of creation.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
