package cmd

// import modules so their init() functions are called

import (
	_ "github.com/PrimitiveContext/AzureEnumRBAC/pkg/modules/azure/recon"
)
