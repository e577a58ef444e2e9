package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Genie-Analytics/pkg/openrouter"
)

// Config is only required when agents run in llm mode.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	SalesModel          string  `envconfig:"SALES_MODEL" split_words:"true"`
	CustomerModel       string  `envconfig:"CUSTOMER_MODEL" split_words:"true"`
	SalesTemperature    float32 `envconfig:"SALES_TEMPERATURE" split_words:"true" default:"-1"`
	CustomerTemperature float32 `envconfig:"CUSTOMER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the model settings for one domain agent, falling
// back to the defaults when no override is set.
func (c Config) OpenRouterFor(domain contractx.Domain) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch domain {
	case contractx.DomainSales:
		if v := strings.TrimSpace(c.SalesModel); v != "" {
			modelName = v
		}
		if c.SalesTemperature >= 0 {
			temp = c.SalesTemperature
		}
	case contractx.DomainCustomer:
		if v := strings.TrimSpace(c.CustomerModel); v != "" {
			modelName = v
		}
		if c.CustomerTemperature >= 0 {
			temp = c.CustomerTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
