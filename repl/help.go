package repl

const helpCommands = `Command             Definition
-------             ----------
def <name>=<value>  Define a variable and its value
ls                  List all variables.
history             List all previous commands.
clear history       Forget all previous commands.
precision=<value>   Set the display precision.
precision           Display precision.
help gen            List of general functions
help logic          List of logic functions
help trig           List of trigonometry functions
quit                Quit program.
`

const helpTrig = `Function    Definition
--------    ----------
acos        ArcCosine
asin        ArcSine
atan        ArcTangent
atan2       ArcTangent of y/x
cos         Cosine
sin         Sine
tan         Tangent
acosh       Hyperbolic ArcCosine
asinh       Hyperbolic ArcSine
atanh       Hyperbolic ArcTangent
cosh        Hyperbolic Cosine
sinh        Hyperbolic Sine
tanh        Hyperbolic Tangent
sec         Secant
csc         Cosecant
cot         Cotangent
rad2deg     Radians to Degrees
deg2rad     Degrees to Radians
deg2grad    Degrees to Gradians
grad2deg    Gradians to Degrees
hyp         Hypotenuse
`

const helpGen = `Function      Definition
--------      ----------
abs           Absolute value
min           Minimum of values
max           Maximum of values
avg           Average of values
sum           Summation of values
ceil          Ceiling of value
floor         Floor of value
trunc         Integer part of value
frac          Fractional part of value
sgn           Sign of value
exp           e^value
log, ln       Natural logarithm
log10         Logarithm base 10
log2          Logarithm base 2
logn          Logarithm base N
round         Round to nearest integer
roundn        Round n digits
root          Root-n of value
sqrt          Square root
clamp         Clamp value
`

const helpLogic = `Function     Definition
--------     ----------
and          Logical AND
or           Logical OR
xor          Exclusive OR
not          Logical NOT
nand         Logical NOT-AND
nor          Logical NOT-OR
if           if(cond, then, else)
shr          Shift Right N
shl          Shift Left N
inrange      Value within range
`

// helpTopics maps the argument of a help command to its table.
var helpTopics = map[string]string{
	"":      helpCommands,
	"trig":  helpTrig,
	"gen":   helpGen,
	"logic": helpLogic,
}
