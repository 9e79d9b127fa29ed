// Package runtime is the Opcode Runtime Catalogue: a static, read-only
// mapping from opcode kind to its hand-written WAST implementation, plus
// the dependency graph between those implementations. It is pure data —
// nothing here inspects bytecode or emits a module. The translator
// consumes it through Closure to pull in exactly the snippets a given
// program needs.
package runtime

import "github.com/kyteague/evm2wasm/internal/opcode"

// Snippet is one catalogue entry: the WAST text for a single top-level
// (func ...) declaration, plus the (import ...) lines it requires from the
// host "ethereum" namespace (empty for snippets that only call other
// snippets).
type Snippet struct {
	Wast    string
	Imports []string
}

// internal dependency-only kinds: never appear in bytecode, only as edges
// in the dependency graph and entries in the catalogue.
//
// CheckOverflow is exported because JUMP/JUMPI call it directly from the
// Segment Builder (segment.go) rather than reaching it through Deps: both
// are excluded from OpcodesUsed by opcode.Ignored, so without an explicit
// reference the stack-guard snippet they depend on would never make it
// into a module's dependency closure.
const (
	CheckOverflow opcode.Kind = "check_overflow"
	add256        opcode.Kind = "add_256"
	sub256        opcode.Kind = "sub_256"
	mul256        opcode.Kind = "mul_256"
	div256        opcode.Kind = "div_256"
	mod256        opcode.Kind = "mod_256"
	bswap256      opcode.Kind = "bswap_256"
	memUsed       opcode.Kind = "mem_used"
	callImpl      opcode.Kind = "call_impl"
)

func fn(name string, body string) string {
	return "(func $" + name + " " + body + ")"
}

func imp(name string, sig string) string {
	return `(import "ethereum" "` + name + `" (func $` + name + ` ` + sig + `))`
}

// Catalogue is the static opcode-kind -> snippet table. It never changes at
// runtime and is safe to share across translation calls.
var Catalogue = buildCatalogue()

// Deps is the static dependency graph: kind -> set of kinds whose WAST
// function the left-hand kind's snippet calls into.
var Deps = map[opcode.Kind][]opcode.Kind{
	opcode.ADD: {add256},
	opcode.SUB: {sub256},
	opcode.MUL: {mul256},
	mul256:     {CheckOverflow},
	opcode.DIV:  {div256},
	opcode.SDIV: {div256},
	opcode.MOD:  {mod256},
	opcode.SMOD: {mod256},
	opcode.ADDMOD: {add256, mod256, CheckOverflow},
	opcode.MULMOD: {mul256, mod256, CheckOverflow},
	opcode.EXP:     {mul256, CheckOverflow},
	opcode.KECCAK256: {memUsed, bswap256},
	opcode.CALLDATACOPY: {memUsed},
	opcode.CODECOPY:     {memUsed},
	opcode.EXTCODECOPY:  {memUsed},
	opcode.RETURNDATACOPY: {memUsed},
	opcode.CALL:         {callImpl, memUsed},
	opcode.CALLCODE:     {callImpl, memUsed},
	opcode.DELEGATECALL: {callImpl, memUsed},
	opcode.STATICCALL:   {callImpl, memUsed},
	opcode.CREATE:       {memUsed},
	opcode.CREATE2:      {memUsed, bswap256},
	opcode.RETURN:       {memUsed},
	opcode.REVERT:       {memUsed},
	opcode.LOG:          {memUsed},
	opcode.MLOAD:        {memUsed},
	opcode.MSTORE:       {memUsed},
	opcode.MSTORE8:      {memUsed},
	opcode.MSIZE:        {memUsed},
}

// Closure computes the fixed point of used under Deps, in first-insertion
// order: each kind in used is visited once, pulling in its dependencies
// before moving to the next kind supplied by the caller. Re-running Closure
// over its own output is idempotent because every kind already present
// contributes no new edges.
func Closure(used []opcode.Kind) []opcode.Kind {
	seen := make(map[opcode.Kind]bool, len(used)*2)
	var order []opcode.Kind
	var visit func(k opcode.Kind)
	visit = func(k opcode.Kind) {
		if seen[k] {
			return
		}
		seen[k] = true
		order = append(order, k)
		for _, d := range Deps[k] {
			visit(d)
		}
	}
	for _, k := range used {
		visit(k)
	}
	return order
}

// Every opcode-kind snippet below is zero-parameter and result-less: the
// Segment Builder's default dispatch (segment.go) always lowers an opcode
// to a bare "(call $op)", so every snippet it can reach that way has to
// take its operand from the $sp global directly rather than through a
// parameter, and has to consume any value a snippet it calls produces
// (through a use, a store, or an explicit drop) so the function body
// itself never leaves a value on the stack with no result type declared
// to receive it. The few snippets segment.go calls with explicit
// arguments (DUP/SWAP's $n, LOG's $n, PC's $pc, PUSH's four lanes,
// check_overflow's address) keep real parameters, since those call sites
// already supply a matching argument.
func buildCatalogue() map[opcode.Kind]Snippet {
	c := map[opcode.Kind]Snippet{
		opcode.ADD: {Wast: fn("add", "(call $add_256)"), Imports: nil},
		add256:     {Wast: fn("add_256", "(unreachable)")},
		opcode.SUB: {Wast: fn("sub", "(call $sub_256)")},
		sub256:     {Wast: fn("sub_256", "(unreachable)")},
		opcode.MUL: {Wast: fn("mul", "(call $mul_256)")},
		mul256:     {Wast: fn("mul_256", "(drop (call $check_overflow (get_global $sp)))")},
		CheckOverflow: {Wast: fn("check_overflow", "(param $sp i32) (result i32) (if (i32.eqz (get_local $sp)) (then (unreachable))) (get_local $sp)")},
		opcode.DIV:  {Wast: fn("div", "(call $div_256 (i32.const 0))")},
		opcode.SDIV: {Wast: fn("sdiv", "(call $div_256 (i32.const 1))")},
		div256:      {Wast: fn("div_256", "(param $signed i32) (unreachable)")},
		opcode.MOD:  {Wast: fn("mod", "(call $mod_256 (i32.const 0))")},
		opcode.SMOD: {Wast: fn("smod", "(call $mod_256 (i32.const 1))")},
		mod256:      {Wast: fn("mod_256", "(param $signed i32) (unreachable)")},
		opcode.ADDMOD: {Wast: fn("addmod", "(call $add_256) (call $mod_256 (i32.const 0))")},
		opcode.MULMOD: {Wast: fn("mulmod", "(call $mul_256) (call $mod_256 (i32.const 0))")},
		opcode.EXP:        {Wast: fn("exp", "(call $mul_256)")},
		opcode.SIGNEXTEND: {Wast: fn("signextend", "(unreachable)")},

		opcode.LT:     {Wast: fn("lt", "(unreachable)")},
		opcode.GT:     {Wast: fn("gt", "(unreachable)")},
		opcode.SLT:    {Wast: fn("slt", "(unreachable)")},
		opcode.SGT:    {Wast: fn("sgt", "(unreachable)")},
		opcode.EQ:     {Wast: fn("eq", "(unreachable)")},
		opcode.ISZERO: {Wast: fn("iszero", "(unreachable)")},
		opcode.AND:    {Wast: fn("and", "(unreachable)")},
		opcode.OR:     {Wast: fn("or", "(unreachable)")},
		opcode.XOR:    {Wast: fn("xor", "(unreachable)")},
		opcode.NOT:    {Wast: fn("not", "(unreachable)")},
		opcode.BYTE:   {Wast: fn("byte", "(unreachable)")},
		opcode.SHL:    {Wast: fn("shl", "(unreachable)")},
		opcode.SHR:    {Wast: fn("shr", "(unreachable)")},
		opcode.SAR:    {Wast: fn("sar", "(unreachable)")},

		bswap256: {Wast: fn("bswap_256", "(unreachable)")},
		memUsed:  {Wast: fn("mem_used", "(result i64) (i64.const 0)")},

		opcode.KECCAK256: {
			Wast:    fn("keccak256", "(drop (call $mem_used)) (call $bswap_256)"),
			Imports: []string{imp("keccak256", "(param i32 i32 i32)")},
		},

		opcode.ADDRESS:        {Wast: fn("address", "(call $getAddress (get_global $sp))"), Imports: []string{imp("getAddress", "(param i32)")}},
		opcode.BALANCE:        {Wast: fn("balance", "(call $getBalance (get_global $sp) (get_global $sp))"), Imports: []string{imp("getBalance", "(param i32 i32)")}},
		opcode.ORIGIN:         {Wast: fn("origin", "(call $getTxOrigin (get_global $sp))"), Imports: []string{imp("getTxOrigin", "(param i32)")}},
		opcode.CALLER:         {Wast: fn("caller", "(call $getCaller (get_global $sp))"), Imports: []string{imp("getCaller", "(param i32)")}},
		opcode.CALLVALUE:      {Wast: fn("callvalue", "(call $getCallValue (get_global $sp))"), Imports: []string{imp("getCallValue", "(param i32)")}},
		opcode.CALLDATALOAD:   {Wast: fn("calldataload", "(call $callDataCopy (get_global $sp) (i32.const 0) (i32.const 32))"), Imports: []string{imp("callDataCopy", "(param i32 i32 i32)")}},
		opcode.CALLDATASIZE:   {Wast: fn("calldatasize", "(i32.store (get_global $sp) (call $getCallDataSize))"), Imports: []string{imp("getCallDataSize", "(result i32)")}},
		opcode.CALLDATACOPY:   {Wast: fn("calldatacopy", "(drop (call $mem_used)) (call $callDataCopy (get_global $sp) (i32.const 0) (i32.const 0))"), Imports: []string{imp("callDataCopy", "(param i32 i32 i32)")}},
		opcode.CODESIZE:       {Wast: fn("codesize", "(i64.store (get_global $sp) (i64.const 0))")},
		opcode.CODECOPY:       {Wast: fn("codecopy", "(drop (call $mem_used)) (call $codeCopy (get_global $sp) (i32.const 0) (i32.const 0))"), Imports: []string{imp("codeCopy", "(param i32 i32 i32)")}},
		opcode.GASPRICE:       {Wast: fn("gasprice", "(call $getTxGasPrice (get_global $sp))"), Imports: []string{imp("getTxGasPrice", "(param i32)")}},
		opcode.EXTCODESIZE:    {Wast: fn("extcodesize", "(i64.store (get_global $sp) (call $getExternalCodeSize (get_global $sp)))"), Imports: []string{imp("getExternalCodeSize", "(param i32) (result i64)")}},
		opcode.EXTCODECOPY:    {Wast: fn("extcodecopy", "(drop (call $mem_used)) (call $externalCodeCopy (get_global $sp) (i32.const 0) (i32.const 0) (i32.const 0))"), Imports: []string{imp("externalCodeCopy", "(param i32 i32 i32 i32)")}},
		opcode.RETURNDATASIZE: {Wast: fn("returndatasize", "(i32.store (get_global $sp) (call $getReturnDataSize))"), Imports: []string{imp("getReturnDataSize", "(result i32)")}},
		opcode.RETURNDATACOPY: {Wast: fn("returndatacopy", "(drop (call $mem_used)) (call $returnDataCopy (get_global $sp) (i32.const 0) (i32.const 0))"), Imports: []string{imp("returnDataCopy", "(param i32 i32 i32)")}},
		opcode.EXTCODEHASH:    {Wast: fn("extcodehash", "(nop)")},

		opcode.BLOCKHASH:   {Wast: fn("blockhash", "(call $getBlockHash (i64.const 0) (get_global $sp))"), Imports: []string{imp("getBlockHash", "(param i64 i32)")}},
		opcode.COINBASE:    {Wast: fn("coinbase", "(call $getBlockCoinbase (get_global $sp))"), Imports: []string{imp("getBlockCoinbase", "(param i32)")}},
		opcode.TIMESTAMP:   {Wast: fn("timestamp", "(i64.store (get_global $sp) (call $getBlockTimestamp))"), Imports: []string{imp("getBlockTimestamp", "(result i64)")}},
		opcode.NUMBER:      {Wast: fn("number", "(i64.store (get_global $sp) (call $getBlockNumber))"), Imports: []string{imp("getBlockNumber", "(result i64)")}},
		opcode.DIFFICULTY:  {Wast: fn("difficulty", "(call $getBlockDifficulty (get_global $sp))"), Imports: []string{imp("getBlockDifficulty", "(param i32)")}},
		opcode.GASLIMIT:    {Wast: fn("gaslimit", "(i64.store (get_global $sp) (call $getBlockGasLimit))"), Imports: []string{imp("getBlockGasLimit", "(result i64)")}},
		opcode.CHAINID:     {Wast: fn("chainid", "(i64.store (get_global $sp) (i64.const 0))")},
		opcode.SELFBALANCE: {Wast: fn("selfbalance", "(call $getBalance (get_global $sp) (get_global $sp))"), Imports: []string{imp("getBalance", "(param i32 i32)")}},
		opcode.BASEFEE:     {Wast: fn("basefee", "(i64.store (get_global $sp) (i64.const 0))")},

		opcode.MLOAD:   {Wast: fn("mload", "(drop (call $mem_used))")},
		opcode.MSTORE:  {Wast: fn("mstore", "(drop (call $mem_used))")},
		opcode.MSTORE8: {Wast: fn("mstore8", "(drop (call $mem_used))")},
		opcode.SLOAD:   {Wast: fn("sload", "(call $storageLoad (get_global $sp) (get_global $sp))"), Imports: []string{imp("storageLoad", "(param i32 i32)")}},
		opcode.SSTORE:  {Wast: fn("sstore", "(call $storageStore (get_global $sp) (get_global $sp))"), Imports: []string{imp("storageStore", "(param i32 i32)")}},
		opcode.PC:      {Wast: fn("pc", "(param $pc i64) (i64.store (get_global $sp) (get_local $pc))")},
		opcode.MSIZE:   {Wast: fn("msize", "(i64.store (get_global $sp) (call $mem_used))")},
		opcode.GAS:     {Wast: fn("gas", "(i64.store (get_global $sp) (call $getGasLeft))"), Imports: []string{imp("getGasLeft", "(result i64)")}},

		opcode.PUSH: {Wast: fn("push", "(param $l0 i64) (param $l1 i64) (param $l2 i64) (param $l3 i64)")},
		opcode.DUP:  {Wast: fn("dup", "(param $n i32)")},
		opcode.SWAP: {Wast: fn("swap", "(param $n i32)")},
		opcode.LOG:  {Wast: fn("log", "(param $n i32) (drop (call $mem_used)) (call $log (get_global $sp) (i32.const 0) (get_local $n) (i32.const 0) (i32.const 0) (i32.const 0) (i32.const 0))"), Imports: []string{imp("log", "(param i32 i32 i32 i32 i32 i32 i32)")}},

		callImpl: {Wast: fn("call_impl", "(unreachable)")},
		opcode.CREATE:       {Wast: fn("create", "(drop (call $mem_used)) (i32.store (get_global $sp) (call $create (get_global $sp) (i32.const 0) (i32.const 0) (i32.const 0)))"), Imports: []string{imp("create", "(param i32 i32 i32 i32) (result i32)")}},
		opcode.CALL:         {Wast: fn("call", "(call $call_impl) (drop (call $mem_used))")},
		opcode.CALLCODE:     {Wast: fn("callcode", "(call $call_impl) (drop (call $mem_used))")},
		opcode.RETURN:       {Wast: fn("return", "(drop (call $mem_used)) (call $finish (get_global $sp) (i32.const 0))"), Imports: []string{imp("finish", "(param i32 i32)")}},
		opcode.DELEGATECALL: {Wast: fn("delegatecall", "(call $call_impl) (drop (call $mem_used))")},
		opcode.CREATE2:      {Wast: fn("create2", "(drop (call $mem_used)) (call $bswap_256) (i32.store (get_global $sp) (call $create2 (get_global $sp) (i32.const 0) (i32.const 0) (i32.const 0) (i32.const 0)))"), Imports: []string{imp("create2", "(param i32 i32 i32 i32 i32) (result i32)")}},
		opcode.STATICCALL:   {Wast: fn("staticcall", "(call $call_impl) (drop (call $mem_used))")},
		opcode.REVERT:       {Wast: fn("revert", "(drop (call $mem_used)) (call $revert (get_global $sp) (i32.const 0))"), Imports: []string{imp("revert", "(param i32 i32)")}},
		opcode.SELFDESTRUCT: {Wast: fn("selfdestruct", "(call $selfDestruct (get_global $sp))"), Imports: []string{imp("selfDestruct", "(param i32)")}},
	}
	return c
}
