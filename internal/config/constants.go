package config

import "time"

// Gas ceilings for the marketplace operations. GasLimitHBARTransfer and
// GasLimitContractCall are EstimateGas fallbacks; the token limits are sent
// as-is.
const (
	GasLimitHBARTransfer = uint64(21_000)  // native HBAR transfer
	GasLimitFTTransfer   = uint64(50_000)  // fungible token transfer(address,uint256)
	GasLimitNFTTransfer  = uint64(100_000) // NFT transferFrom(address,address,uint256)
	GasLimitAssociate    = uint64(800_000) // HTS associate()
	GasLimitContractCall = uint64(200_000) // generic contract state-change call
)

// Timeout constants used across cmd.
const (
	RelayCheckTimeout = 10 * time.Second // chain ID check against the relay
	TxConfirmTimeout  = 3 * time.Minute  // standard transaction confirmation wait
)
