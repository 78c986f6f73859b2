package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/adlens/ads-audit/internal/report/assemble"
)

// AWSStorage provides AWS-backed storage using DynamoDB and S3. Full report
// bodies live in S3; DynamoDB holds one index item per run so listings do
// not read S3.
type AWSStorage struct {
	dynamoDB  *dynamodb.Client
	s3Client  *s3.Client
	tableName string
	bucket    string
	region    string
}

// runItem is the DynamoDB run index entry.
type runItem struct {
	PK        string `dynamodbav:"PK"` // AUDIT#<customer_id>
	SK        string `dynamodbav:"SK"` // RUN#<generated_at RFC3339>
	ReportID  string `dynamodbav:"ReportID"`
	Summary   string `dynamodbav:"Summary"` // JSON ReportSummary
	Timestamp string `dynamodbav:"Timestamp"`
	TTL       int64  `dynamodbav:"TTL,omitempty"`
}

// NewAWSStorage creates a new AWS storage instance
func NewAWSStorage(ctx context.Context, tableName, bucket, region, profile string) (*AWSStorage, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &AWSStorage{
		dynamoDB:  dynamodb.NewFromConfig(cfg),
		s3Client:  s3.NewFromConfig(cfg),
		tableName: tableName,
		bucket:    bucket,
		region:    region,
	}, nil
}

// reportKey is the S3 object key for a report body.
func reportKey(id string) string {
	return fmt.Sprintf("reports/%s.json", id)
}

// SaveReportToS3 writes the full report body to S3.
func (s *AWSStorage) SaveReportToS3(ctx context.Context, report *assemble.Report) error {
	return s.SaveToS3(ctx, reportKey(report.ID), report)
}

// GetReportFromS3 reads a report body by ID.
func (s *AWSStorage) GetReportFromS3(ctx context.Context, id string, target *assemble.Report) error {
	return s.GetFromS3(ctx, reportKey(id), target)
}

// IndexRun writes the run index entry for a report.
func (s *AWSStorage) IndexRun(ctx context.Context, summary ReportSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	item := runItem{
		PK:        fmt.Sprintf("AUDIT#%s", summary.CustomerID),
		SK:        fmt.Sprintf("RUN#%s", summary.GeneratedAt.UTC().Format(time.RFC3339)),
		ReportID:  summary.ID,
		Summary:   string(data),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TTL:       time.Now().Add(365 * 24 * time.Hour).Unix(), // 1 year retention
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}

	_, err = s.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}

	return nil
}

// DeleteReport removes a report body from S3 and its run index entry.
func (s *AWSStorage) DeleteReport(ctx context.Context, summary ReportSummary) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(reportKey(summary.ID)),
	})
	if err != nil {
		return fmt.Errorf("deleting object from S3: %w", err)
	}

	_, err = s.dynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("AUDIT#%s", summary.CustomerID)},
			"SK": &types.AttributeValueMemberS{Value: "RUN#" + summary.GeneratedAt.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting item from DynamoDB: %w", err)
	}

	return nil
}

// ListRuns queries the run index for a customer, newest first.
func (s *AWSStorage) ListRuns(ctx context.Context, customerID string, limit int) ([]ReportSummary, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("AUDIT#%s", customerID)},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := s.dynamoDB.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	summaries := make([]ReportSummary, 0, len(result.Items))
	for _, item := range result.Items {
		var ri runItem
		if err := attributevalue.UnmarshalMap(item, &ri); err != nil {
			continue
		}
		var summary ReportSummary
		if err := json.Unmarshal([]byte(ri.Summary), &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// ListRunsInRange queries the run index for runs between two times.
func (s *AWSStorage) ListRunsInRange(ctx context.Context, customerID string, from, to time.Time) ([]ReportSummary, error) {
	result, err := s.dynamoDB.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND SK BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: fmt.Sprintf("AUDIT#%s", customerID)},
			":from": &types.AttributeValueMemberS{Value: "RUN#" + from.UTC().Format(time.RFC3339)},
			":to":   &types.AttributeValueMemberS{Value: "RUN#" + to.UTC().Format(time.RFC3339)},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	summaries := make([]ReportSummary, 0, len(result.Items))
	for _, item := range result.Items {
		var ri runItem
		if err := attributevalue.UnmarshalMap(item, &ri); err != nil {
			continue
		}
		var summary ReportSummary
		if err := json.Unmarshal([]byte(ri.Summary), &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// SaveToS3 saves data to S3 as indented JSON
func (s *AWSStorage) SaveToS3(ctx context.Context, key string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}

	return nil
}

// GetFromS3 retrieves data from S3
func (s *AWSStorage) GetFromS3(ctx context.Context, key string, target interface{}) error {
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("getting object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("reading S3 object body: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshaling S3 data: %w", err)
	}

	return nil
}
