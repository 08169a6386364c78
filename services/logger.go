package services

import config "github.com/TimmyIsANerd/chamswap/configs"

var log = config.InitLogger()
