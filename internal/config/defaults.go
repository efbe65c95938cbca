package config

// Sepolia defaults for the confidential token dashboard.
const (
	DefaultNetworkName = "sepolia"
	DefaultChainID     = 11155111
	DefaultRPCURL      = "https://ethereum-sepolia-rpc.publicnode.com"
	DefaultRelayerURL  = "https://relayer.testnet.zama.cloud"

	// DefaultGatewayChainID is the chain the decryption verifying contract lives on.
	DefaultGatewayChainID = 55815

	DefaultACLContract                        = "0x687820221192C5B662b25367F70076A37bc79b6c"
	DefaultKMSContract                        = "0x1364cBBf2cDF5032C47d8226a6f6FBD2AFCDacAC"
	DefaultInputVerifierContract              = "0xbc91f3daD1A5F19F8390c400196e58073B6a0BC4"
	DefaultVerifyingContractDecryption        = "0xb6E160B1ff80D67Bfe90A85eE06Ce0A2613607D1"
	DefaultVerifyingContractInputVerification = "0x7048C39f048125eDa9d678AEbaDfB22F7900a29F"

	DefaultFactoryContract = "0x8d3F4e8fe379dBEA133420Eb6Be79033A0e78593"
	DefaultAirdropContract = "0x6dB435EFe22787b6CC4E0DDAb8a6281a8a6E04F1"
	DefaultForgeToken      = "0xdc5A3601541518A3B52879ef5F231f6A624C93EB"
	DefaultTestCoin        = "0xD659cfc0D1642aEc9aa7B3fbcd339B836A1b6d60"

	// DefaultDecryptionDurationDays is the validity window of a decryption signature.
	DefaultDecryptionDurationDays = 10
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.zforge",
		Network: NetworkConfig{
			Name:                               DefaultNetworkName,
			ChainID:                            DefaultChainID,
			RPC:                                DefaultRPCURL,
			RelayerURL:                         DefaultRelayerURL,
			GatewayChainID:                     DefaultGatewayChainID,
			ACLContract:                        DefaultACLContract,
			KMSContract:                        DefaultKMSContract,
			InputVerifierContract:              DefaultInputVerifierContract,
			VerifyingContractDecryption:        DefaultVerifyingContractDecryption,
			VerifyingContractInputVerification: DefaultVerifyingContractInputVerification,
		},
		Contracts: ContractsConfig{
			Factory:    DefaultFactoryContract,
			Airdrop:    DefaultAirdropContract,
			ForgeToken: DefaultForgeToken,
			TestCoin:   DefaultTestCoin,
		},
		Relayer: RelayerConfig{
			RatePerSecond:  5,
			Burst:          2,
			TimeoutSeconds: 0, // relayer calls are unbounded unless configured
			MaxRetries:     3,
		},
		Decryption: DecryptionConfig{
			OnFailure:    OnFailureReturnDefault,
			DurationDays: DefaultDecryptionDurationDays,
		},
		Transactions: TransactionsConfig{
			WaitForReceipt:        false,
			ReceiptTimeoutSeconds: 120,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.zforge/zforge.log",
		},
	}
}
