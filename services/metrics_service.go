// Package services: services/metrics_service.go
package services

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"

	"go-asistencia/logger"
)

// Namespace for all attendance metrics
var metricsNamespace = "AsistenciaAsamblea"

// MetricsService publishes operational counters to CloudWatch. Publishing
// is fire-and-forget: failures are logged, never surfaced to callers. A nil
// or disabled service turns every publish into a no-op.
type MetricsService struct {
	enabled bool
	client  *cloudwatch.CloudWatch
}

// NewMetricsService creates the publisher. The AWS session is only opened
// when metrics are enabled, so local deployments need no AWS credentials.
func NewMetricsService(enabled bool) *MetricsService {
	m := &MetricsService{enabled: enabled}
	if enabled {
		m.client = cloudwatch.New(session.Must(session.NewSession()))
	}
	return m
}

// PublishConfirmationResult counts an accepted or rejected confirmation.
func (m *MetricsService) PublishConfirmationResult(accepted bool) {
	name := "ConfirmationsRejected"
	if accepted {
		name = "ConfirmationsAccepted"
	}
	m.putMetric(name, 1, "Count")
}

// PublishRosterSize pushes the roster size after a load or reload.
func (m *MetricsService) PublishRosterSize(count int) {
	m.putMetric("RosterSize", float64(count), "Count")
}

// -----------------------------------------------------------
// internal helper function to package up CloudWatch calls
// -----------------------------------------------------------
func (m *MetricsService) putMetric(metricName string, value float64, unit string) {
	if m == nil || !m.enabled || m.client == nil {
		return
	}

	_, err := m.client.PutMetricData(&cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricsNamespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Timestamp:  aws.Time(time.Now()),
				Value:      aws.Float64(value),
				Unit:       aws.String(unit),
			},
		},
	})
	if err != nil {
		logger.Error.Printf("[putMetric] CloudWatch metric failed (%s): %v", metricName, err)
	}
}
