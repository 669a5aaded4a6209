package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken    string  `env:"BOT_TOKEN,required"`
		BotUsername string  `env:"BOT_USERNAME" envDefault:""`
		AppName     string  `env:"APP_NAME" envDefault:"nozapp"`
		AdminChatID int64   `env:"ADMIN_CHAT_ID" envDefault:"0"`
		AdminIDs    []int64 `env:"ADMIN_IDS" envSeparator:","`
		Debug       bool    `env:"TELEGRAM_DEBUG" envDefault:"false"`
	}

	// Rates carries every economy constant. Nothing in the ledger hardcodes a
	// rate; changing an env var changes the economy.
	Rates struct {
		// Every NozStepSize NOZ is worth NozStepStars Telegram Stars.
		NozStepSize  float64 `env:"NOZ_STEP_SIZE" envDefault:"0.001"`
		NozStepStars float64 `env:"NOZ_STEP_STARS" envDefault:"0.5"`

		// Every KfcyStepSize KFCY is worth KfcyStepUSDT USDT.
		KfcyStepSize float64 `env:"KFCY_STEP_SIZE" envDefault:"100"`
		KfcyStepUSDT float64 `env:"KFCY_STEP_USDT" envDefault:"0.01"`

		// Reward credited to the referrer per confirmed referral, in NOZ.
		ReferralReward float64 `env:"REFERRAL_REWARD" envDefault:"0.5"`

		// Reward credited per daily ad watch, in KFCY.
		AdWatchReward int64 `env:"AD_WATCH_REWARD" envDefault:"100"`

		// Withdrawal minimums, expressed in the converted units.
		MinWithdrawalStars float64 `env:"MIN_WITHDRAWAL_STARS" envDefault:"25"`
		MinWithdrawalUSDT  float64 `env:"MIN_WITHDRAWAL_USDT" envDefault:"10"`
	}

	AdsGram struct {
		BaseURL string `env:"ADSGRAM_BASE_URL" envDefault:"https://api.adsgram.ai"`
		BlockID string `env:"ADSGRAM_BLOCK_ID" envDefault:""`
	}

	// Sync is the optional upstream mirror. Empty BaseURL disables mirroring.
	Sync struct {
		BaseURL string `env:"SYNC_BASE_URL" envDefault:""`
	}

	TonProof struct {
		Domain     string `env:"TONPROOF_DOMAIN" envDefault:"ton.app"`
		PayloadTTL int    `env:"TONPROOF_PAYLOAD_TTL" envDefault:"300"`
	}
}

func Load() *Config {
	// A missing .env file is fine; in production the variables are set
	// directly in the environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
